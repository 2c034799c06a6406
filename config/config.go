package config

import (
	"errors"
	"fmt"
	"os"
	"path"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v2"
)

var salesPipeHomeDir string

// Main holds default values for CLI flags.
var Main *File

func init() {
	Main = NewFileWithDir(mustGetConfigHomeDir(), MainFileFullName)
}

const (
	MainDir            = ".salespipe"
	MainFileNamePrefix = "config"
	MainFileNameExt    = "yaml"
	MainFileFullName   = MainFileNamePrefix + "." + MainFileNameExt
)

// FileNotFoundError denotes failing to find configuration file.
type FileNotFoundError struct {
	name string
}

// Error returns the formatted configuration error.
func (f FileNotFoundError) Error() string {
	return fmt.Sprintf("config file %q not found", f.name)
}

type KeyNotFoundError struct {
	configFile string
	key        string
	err        error
}

func (k KeyNotFoundError) Error() string {
	if k.err != nil {
		return fmt.Sprintf("key %q not found in config file %q: %v", k.key, k.configFile, k.err)
	}
	return fmt.Sprintf("key %q not found in config file %q", k.key, k.configFile)
}

// File is a key:value store of CLI defaults persisted as YAML.
type File struct {
	Dirname      string
	FileName     string
	FilePrefix   string
	FileExt      string
	FullPath     string
	data         map[string]interface{}
	dataIsLoaded bool
	mu           sync.Mutex
}

func NewFileWithDir(dirName string, filename string) *File {
	c := &File{Dirname: dirName, FileName: filename}
	c.FullPath = path.Join(dirName, filename)
	c.FileExt = strings.TrimLeft(path.Ext(filename), ".")
	c.FilePrefix = strings.TrimSuffix(c.FileName, "."+c.FileExt)
	c.data = make(map[string]interface{})
	return c
}

// Get will fetch the key from the config File into variable, out.
// Return an error if we can't find the key.
func (c *File) Get(key string, out interface{}) error {
	val := reflect.ValueOf(out)
	if val.Kind() != reflect.Ptr {
		return errors.New("out must be a pointer")
	}
	if err := c.ensureLoaded(); err != nil {
		return err
	}
	c.mu.Lock()
	d, ok := c.data[key]
	c.mu.Unlock()
	if !ok {
		return KeyNotFoundError{configFile: c.FullPath, key: key}
	}
	if err := mapstructure.WeakDecode(d, out); err != nil {
		return KeyNotFoundError{c.FullPath, key, err}
	}
	return nil
}

func (c *File) Set(key string, val interface{}) error {
	if err := c.ensureLoaded(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = val
	return c.save()
}

func (c *File) Delete(key string) error {
	if err := c.ensureLoaded(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, keyExists := c.data[key]; !keyExists {
		return KeyNotFoundError{configFile: c.FullPath, key: key}
	}
	delete(c.data, key)
	return c.save()
}

// GetAllKeys returns the sorted list of keys in the file.
func (c *File) GetAllKeys() ([]string, error) {
	if err := c.ensureLoaded(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	retval := make([]string, 0, len(c.data))
	for k := range c.data {
		retval = append(retval, k)
	}
	sort.Strings(retval)
	return retval, nil
}

// ensureLoaded reads the file once. A missing file is treated as empty.
func (c *File) ensureLoaded() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dataIsLoaded {
		return nil
	}
	err := c.loadData()
	if err != nil && !errors.As(err, &FileNotFoundError{}) {
		return err
	}
	c.dataIsLoaded = true
	return nil
}

func (c *File) loadData() error {
	b, err := os.ReadFile(c.FullPath)
	if os.IsNotExist(err) {
		return FileNotFoundError{name: c.FullPath}
	} else if err != nil {
		return err
	}
	data := make(map[string]interface{})
	if err = yaml.Unmarshal(b, &data); err != nil {
		return fmt.Errorf("error reading config file %v: %v", c.FullPath, err)
	}
	c.data = data
	return nil
}

func (c *File) save() error {
	b, err := yaml.Marshal(c.data)
	if err != nil {
		return fmt.Errorf("error marshalling data while writing config file %v: %v", c.FullPath, err)
	}
	if err = makeDir(c.Dirname); err != nil {
		return err
	}
	return os.WriteFile(c.FullPath, b, 0600)
}
