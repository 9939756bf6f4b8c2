package catalog

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// SourceID is the id of an image on its source site. Catalog files carry it
// as a string, a number or null; it reads as "" when absent.
type SourceID string

func (id *SourceID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var value string
		if err := json.Unmarshal(data, &value); err != nil {
			return err
		}
		*id = SourceID(value)
		return nil
	}
	var number json.Number
	if err := json.Unmarshal(data, &number); err != nil {
		return err
	}
	*id = SourceID(number.String())
	return nil
}

func (id SourceID) MarshalJSON() ([]byte, error) {
	if id == "" {
		return []byte("null"), nil
	}
	return []byte(strconv.Quote(string(id))), nil
}

type ImageEntry struct {
	URL       string   `json:"url"`
	IsPixiv   bool     `json:"is_pixiv"`
	IsSeiga   bool     `json:"is_seiga,omitempty"`
	SourceID  SourceID `json:"id"`
	Character string   `json:"character,omitempty"`
	Trap      bool     `json:"trap,omitempty"`
	Submitter string   `json:"submitter,omitempty"`
}

const (
	pixivPrefix = "http://www.pixiv.net/member_illust.php?mode=medium&illust_id="
	seigaPrefix = "http://seiga.nicovideo.jp/seiga/im"
)

// Source returns the label and page of the image's original source, if known.
func (e ImageEntry) Source() (label, link string, ok bool) {
	switch {
	case e.IsPixiv:
		return "Pixiv", pixivPrefix + string(e.SourceID), true
	case e.IsSeiga:
		return "Nico Nico Seiga", seigaPrefix + string(e.SourceID), true
	default:
		return "", "", false
	}
}

// document is the layout of every catalog file.
type document struct {
	Catgirls []ImageEntry `json:"catgirls"`
	Catboys  []ImageEntry `json:"catboys"`
}
