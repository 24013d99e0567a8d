package pairfile

import (
	"bytes"
	"fmt"

	"github.com/magiconair/properties"
)

type propertiesDocument struct {
	path  string
	props *properties.Properties
}

func openProperties(path string) (Document, error) {
	loader := &properties.Loader{Encoding: properties.UTF8, DisableExpansion: true}

	props, err := loader.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	props.DisableExpansion = true

	return &propertiesDocument{path: path, props: props}, nil
}

func (d *propertiesDocument) Path() string { return d.path }

func (d *propertiesDocument) Get(key string) (string, bool) {
	return d.props.Get(key)
}

func (d *propertiesDocument) Set(key, value string) {
	// cannot fail with expansion disabled
	_, _, _ = d.props.Set(key, value)
}

func (d *propertiesDocument) Delete(key string) bool {
	if _, ok := d.props.Get(key); !ok {
		return false
	}
	d.props.Delete(key)
	return true
}

func (d *propertiesDocument) Keys() []string {
	return d.props.Keys()
}

func (d *propertiesDocument) Save() error {
	var buf bytes.Buffer
	if _, err := d.props.WriteComment(&buf, "# ", properties.UTF8); err != nil {
		return fmt.Errorf("encode %s: %w", d.path, err)
	}
	return writeAtomic(d.path, buf.Bytes())
}
