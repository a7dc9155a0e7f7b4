package pakdb

import "github.com/dustin/go-humanize"

func humanizeBytes(n uint64) string { return humanize.Bytes(n) }
