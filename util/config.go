package util

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"reflect"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadConfig sets the fields of the struct pointed to by c from the
// environment variables prefix + upper case field name. String fields are
// taken as is, everything else is decoded as json. Unset variables keep the
// current value.
func LoadConfig(prefix string, c any) error {
	rt, rc := reflect.TypeOf(c).Elem(), reflect.ValueOf(c).Elem()
	for i := 0; i < rt.NumField(); i++ {
		rft := rt.Field(i)
		if !rft.IsExported() {
			continue
		}
		name := prefix + strings.ToUpper(rft.Name)
		s, ok := os.LookupEnv(name)
		if !ok {
			continue
		}
		if rft.Type.Kind() == reflect.String {
			rc.Field(i).SetString(s)
		} else if err := json.Unmarshal([]byte(s), rc.Field(i).Addr().Interface()); err != nil {
			return fmt.Errorf("failed to unmarshal %q(%s) from %q", name, rft.Type, s)
		}
	}
	return nil
}

// LoadConfigFile decodes the yaml file at path into c. Unknown keys are an
// error; a missing file is not.
func LoadConfigFile(path string, c any) error {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	} else if err != nil {
		return err
	}
	defer f.Close()
	d := yaml.NewDecoder(f)
	d.KnownFields(true)
	if err := d.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}
