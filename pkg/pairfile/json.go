package pairfile

import (
	"fmt"
	"os"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
)

// jsonDocument is a flat JSON object whose top-level keys are pair flags,
// e.g. {"FOOBTC_trading_enabled": "false"}. Nested values are kept as they are.
type jsonDocument struct {
	path string
	raw  []byte
}

func openJSON(path string) (Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	if len(strings.TrimSpace(string(raw))) == 0 {
		raw = []byte("{}")
	}
	if !gjson.ValidBytes(raw) || !gjson.ParseBytes(raw).IsObject() {
		return nil, fmt.Errorf("parse %s: not a JSON object", path)
	}

	return &jsonDocument{path: path, raw: raw}, nil
}

func (d *jsonDocument) Path() string { return d.path }

func (d *jsonDocument) Get(key string) (string, bool) {
	r := gjson.GetBytes(d.raw, escapePath(key))
	if !r.Exists() {
		return "", false
	}
	return r.String(), true
}

func (d *jsonDocument) Set(key, value string) {
	if raw, err := sjson.SetBytes(d.raw, escapePath(key), value); err == nil {
		d.raw = raw
	}
}

func (d *jsonDocument) Delete(key string) bool {
	if _, ok := d.Get(key); !ok {
		return false
	}
	raw, err := sjson.DeleteBytes(d.raw, escapePath(key))
	if err != nil {
		return false
	}
	d.raw = raw
	return true
}

func (d *jsonDocument) Keys() []string {
	keys := make([]string, 0)
	gjson.ParseBytes(d.raw).ForEach(func(key, _ gjson.Result) bool {
		keys = append(keys, key.String())
		return true
	})
	return keys
}

func (d *jsonDocument) Save() error {
	return writeAtomic(d.path, pretty.Pretty(d.raw))
}

// escapePath turns a flat key into a gjson/sjson path that matches it literally.
func escapePath(key string) string {
	var b strings.Builder
	for _, r := range key {
		switch r {
		case '.', '*', '?', '|', '#', '@', '\\', '!', '=', '<', '>', '%':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
