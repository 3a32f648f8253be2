package tabular

import (
	"fmt"
	"path"
	"regexp"
	"strconv"
)

// PartitionFile is the file name written inside each partition directory.
const PartitionFile = "part-00000.parquet"

var partitionPattern = regexp.MustCompile(`(?:^|/)year=(\d{4})/[^/]+\.parquet$`)

// PartitionKey returns the key of a year partition under prefix, in the
// hive layout "prefix/year=YYYY/part-00000.parquet".
func PartitionKey(prefix string, year int) string {
	return path.Join(prefix, fmt.Sprintf("year=%d", year), PartitionFile)
}

// PartitionYear extracts the year from a hive partition key.
func PartitionYear(key string) (int, bool) {
	m := partitionPattern.FindStringSubmatch(key)
	if m == nil {
		return 0, false
	}
	year, err := strconv.Atoi(m[1])
	return year, err == nil
}
