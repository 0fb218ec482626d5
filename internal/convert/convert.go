// Package convert rewrites Chinese titles between scripts for read responses.
package convert

import (
	"fmt"

	"github.com/liuzl/gocc"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/cesargomez89/discosync/internal/logger"
	"github.com/cesargomez89/discosync/internal/store"
)

// TextConverter converts Traditional Chinese text to Simplified.
type TextConverter interface {
	TradToSim(text string) string
}

type openCCConverter struct {
	converter *gocc.OpenCC
	logger    *logger.Logger
}

// NewOpenCC returns a converter backed by the OpenCC t2s dictionaries.
func NewOpenCC(log *logger.Logger) (TextConverter, error) {
	converter, err := gocc.New("t2s")
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenCC converter: %w", err)
	}
	log = log.WithComponent("convert")
	log.Info("OpenCC converter initialized", "config", "t2s")
	return &openCCConverter{converter: converter, logger: log}, nil
}

// TradToSim returns text unchanged when conversion fails.
func (c *openCCConverter) TradToSim(text string) string {
	out, err := c.converter.Convert(text)
	if err != nil {
		c.logger.Warn("Failed to convert text", "text", text, "error", err)
		return text
	}
	return out
}

// SimplifyTitles returns a copy of the JSON document with every
// title.chinese.zht string converted by c, wherever it occurs.
func SimplifyTitles(data []byte, c TextConverter) ([]byte, error) {
	var paths []string
	collectTitlePaths(gjson.ParseBytes(data), nil, &paths)

	out := data
	for _, path := range paths {
		converted := c.TradToSim(gjson.GetBytes(out, path).String())
		var err error
		out, err = sjson.SetBytes(out, path, converted)
		if err != nil {
			return nil, fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return out, nil
}

func collectTitlePaths(node gjson.Result, path []string, out *[]string) {
	if !node.IsObject() && !node.IsArray() {
		return
	}
	i := 0
	node.ForEach(func(key, value gjson.Result) bool {
		seg := key.String()
		if node.IsArray() {
			seg = fmt.Sprint(i)
			i++
		}
		child := append(append([]string(nil), path...), seg)
		if isTitleZht(child) && value.Type == gjson.String {
			*out = append(*out, store.FieldPath(child...))
			return true
		}
		collectTitlePaths(value, child, out)
		return true
	})
}

func isTitleZht(path []string) bool {
	n := len(path)
	return n >= 3 && path[n-1] == "zht" && path[n-2] == "chinese" && path[n-3] == "title"
}
