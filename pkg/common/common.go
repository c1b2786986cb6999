package common

import (
	"strconv"
	"strings"
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
)

const NA = "N/A"

var (
	nodeOnce sync.Once
	node     *snowflake.Node
)

func idNode() *snowflake.Node {
	nodeOnce.Do(func() {
		n, err := snowflake.NewNode(1)
		if err != nil {
			panic(err)
		}
		node = n
	})
	return node
}

// UUIDint64 returns a time-ordered unique int64 id.
func UUIDint64() int64 {
	return idNode().Generate().Int64()
}

// UUID returns a random RFC 4122 id string.
func UUID() string {
	return uuid.NewString()
}

// IfEmptyStr returns defval when src is blank.
func IfEmptyStr(src string, defval string) string {
	if strings.TrimSpace(src) == "" {
		return defval
	}
	return src
}

// ParseInt64 parses a base-10 id, tolerating surrounding spaces.
func ParseInt64(s string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(s), 10, 64)
}

// SplitTags splits a comma separated tag list, dropping blanks.
func SplitTags(s string) []string {
	var tags []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
