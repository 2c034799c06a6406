package actions

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/relloyd/salespipe/config"
	"github.com/relloyd/salespipe/helper"
)

type DefaultAddConfig struct {
	ConfigFile *config.File `errorTxt:"config-file" mandatory:"yes"`
	Key        string       `errorTxt:"key" mandatory:"yes"`
	Value      string       `errorTxt:"value" mandatory:"yes"`
	Force      bool
	Writer     io.Writer
}

type DefaultRemoveConfig struct {
	ConfigFile *config.File `errorTxt:"config-file" mandatory:"yes"`
	Key        string       `errorTxt:"key" mandatory:"yes"`
	Writer     io.Writer
}

// RunDefaultAdd saves a default flag value.
// Existing keys are only overwritten with Force. The file is created on first use.
func RunDefaultAdd(cfg *DefaultAddConfig) error {
	if err := helper.ValidateStructIsPopulated(cfg); err != nil {
		return err
	}
	var val string
	err := cfg.ConfigFile.Get(cfg.Key, &val)
	if err == nil && !cfg.Force {
		return fmt.Errorf("key %q exists, use force to update the value or remove it first", cfg.Key)
	}
	if err != nil && !errors.As(err, &config.KeyNotFoundError{}) && !errors.As(err, &config.FileNotFoundError{}) {
		return err
	}
	if err = cfg.ConfigFile.Set(cfg.Key, cfg.Value); err != nil {
		return fmt.Errorf("error writing config file after adding: %v", err)
	}
	_, _ = fmt.Fprintf(writerOrStdout(cfg.Writer), "Key %q added to %q\n", cfg.Key, cfg.ConfigFile.FullPath)
	return nil
}

// RunDefaultRemove deletes a default flag value.
func RunDefaultRemove(cfg *DefaultRemoveConfig) error {
	if err := helper.ValidateStructIsPopulated(cfg); err != nil {
		return err
	}
	if err := cfg.ConfigFile.Delete(cfg.Key); err != nil {
		return fmt.Errorf("unable to delete key %q from config: %v", cfg.Key, err)
	}
	_, _ = fmt.Fprintf(writerOrStdout(cfg.Writer), "Key %q removed\n", cfg.Key)
	return nil
}

// RunDefaultList prints all default flag values as key=value lines.
func RunDefaultList(f *config.File, w io.Writer) error {
	keys, err := f.GetAllKeys()
	if err != nil {
		return err
	}
	var val string
	for _, k := range keys {
		if err = f.Get(k, &val); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(writerOrStdout(w), "%v=%v\n", k, val)
	}
	return nil
}

func writerOrStdout(w io.Writer) io.Writer {
	if w == nil {
		return os.Stdout
	}
	return w
}
