package fans

import (
	"fmt"
	"io"
	"net/url"

	"gopkg.in/yaml.v3"
)

// Config identifies one ceiling fan in fans.yaml.
type Config struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// Load reads the ceiling fan configuration.
func Load(r io.Reader) ([]Config, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var configs []Config
	if err = yaml.Unmarshal(body, &configs); err != nil {
		return nil, err
	}
	for i, c := range configs {
		if c.Name == "" {
			return nil, fmt.Errorf("fan %d: name is missing", i+1)
		}
		if _, err = url.ParseRequestURI(c.URL); err != nil {
			return nil, fmt.Errorf("fan %q: invalid url: %w", c.Name, err)
		}
	}
	return configs, nil
}
