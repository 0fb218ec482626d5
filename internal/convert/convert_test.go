package convert

import (
	"strings"
	"testing"

	"github.com/tidwall/gjson"

	"github.com/cesargomez89/discosync/internal/logger"
)

// tableConverter maps a few Traditional characters to Simplified ones.
type tableConverter struct{}

func (tableConverter) TradToSim(text string) string {
	return strings.NewReplacer("強", "强", "擁", "拥", "離", "离", "開", "开").Replace(text)
}

func TestSimplifyTitles(t *testing.T) {
	doc := `{
		"id": "album1",
		"title": {"english": "Stubborn", "chinese": {"zht": "倔強", "zhp": "jue jiang", "eng": "Stubborn"}},
		"songs": {
			"1": {"id": "s1", "title": {"chinese": {"zht": "擁抱"}}},
			"3": {"id": "s3", "title": {"chinese": {"zht": "離開"}}}
		},
		"lyrics": [{"type": "lyric", "zht": "離開"}]
	}`

	out, err := SimplifyTitles([]byte(doc), tableConverter{})
	if err != nil {
		t.Fatalf("SimplifyTitles failed: %v", err)
	}

	tests := []struct {
		path string
		want string
	}{
		{"title.chinese.zht", "倔强"},
		{"title.chinese.zhp", "jue jiang"},
		{"songs.1.title.chinese.zht", "拥抱"},
		{"songs.3.title.chinese.zht", "离开"},
		{"lyrics.0.zht", "離開"},
	}
	for _, tt := range tests {
		if got := gjson.GetBytes(out, tt.path).String(); got != tt.want {
			t.Errorf("%s: expected %q, got %q", tt.path, tt.want, got)
		}
	}
}

func TestSimplifyTitles_Discography(t *testing.T) {
	doc := `{"id":"mayday","sections":[{"type":"studio","albums":[{"id":"a"},{"id":"b","title":{"chinese":{"zht":"離開"}}}]}]}`

	out, err := SimplifyTitles([]byte(doc), tableConverter{})
	if err != nil {
		t.Fatalf("SimplifyTitles failed: %v", err)
	}
	if got := gjson.GetBytes(out, "sections.0.albums.1.title.chinese.zht").String(); got != "离开" {
		t.Errorf("Expected 离开, got %q", got)
	}
	if gjson.GetBytes(out, "sections.0.albums.0.title").Exists() {
		t.Error("Expected untitled summary to stay untitled")
	}
}

func TestSimplifyTitles_NoTitles(t *testing.T) {
	doc := []byte(`{"a1":3}`)
	out, err := SimplifyTitles(doc, tableConverter{})
	if err != nil {
		t.Fatalf("SimplifyTitles failed: %v", err)
	}
	if string(out) != string(doc) {
		t.Errorf("Expected document unchanged, got %s", out)
	}
}

func TestNewOpenCC(t *testing.T) {
	c, err := NewOpenCC(logger.Discard())
	if err != nil {
		t.Skipf("OpenCC dictionaries unavailable: %v", err)
	}
	if got := c.TradToSim("倔強"); got != "倔强" {
		t.Errorf("Expected 倔强, got %q", got)
	}
}
