package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rushteam/novelrec/core"
)

// 目录文件的列名（novels.csv）。
const (
	ColumnID       = "id"
	ColumnTitle    = "title"
	ColumnAuthor   = "author"
	ColumnTags     = "tags"
	ColumnPlatform = "platform"
	ColumnRating   = "rating"
)

var requiredColumns = []string{ColumnID, ColumnTitle, ColumnAuthor, ColumnTags, ColumnPlatform}

// LoadCSV 从 CSV 文件加载目录。
func LoadCSV(path string) (*Memory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, core.NewDomainError(core.ModuleCatalog, core.ErrorCodeUnavailable,
			fmt.Sprintf("catalog: open %s: %v", path, err))
	}
	defer f.Close()
	return ReadCSV(f)
}

// ReadCSV 按表头定位列，列顺序不限；rating 列可缺省。
func ReadCSV(r io.Reader) (*Memory, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return Empty(), nil
	}
	if err != nil {
		return nil, invalidInput(fmt.Sprintf("catalog: read csv header: %v", err))
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, c := range requiredColumns {
		if _, ok := cols[c]; !ok {
			return nil, invalidInput(fmt.Sprintf("catalog: csv missing column %q", c))
		}
	}

	field := func(rec []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var novels []core.Novel
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, invalidInput(fmt.Sprintf("catalog: csv line %d: %v", line, err))
		}
		novels = append(novels, core.Novel{
			ID:       field(rec, ColumnID),
			Title:    field(rec, ColumnTitle),
			Author:   field(rec, ColumnAuthor),
			Tags:     field(rec, ColumnTags),
			Platform: field(rec, ColumnPlatform),
			Rating:   ParseRating(field(rec, ColumnRating)),
		})
	}
	return New(novels)
}

// ParseRating 解析平台评分：空、非数字、非正数、NaN/Inf 都视为暂无评分，超过 5 分按 5 分处理。
func ParseRating(s string) core.PlatformRating {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return core.Unrated
	}
	return core.RatingOf(v)
}
