package main

import (
	"bytes"
	"errors"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/Garik-/dse/pkg/container"
	"github.com/Garik-/dse/pkg/registry"
	"github.com/Garik-/dse/pkg/textform"
	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
)

const textExt = ".xml"

var binaryExt = map[container.Format]string{
	container.SMDL: ".smd",
	container.SWDL: ".swd",
}

var errRoundTrip = errors.New("round trip differs")

type converter struct {
	mode   textform.Mode
	reg    *registry.Registry
	outDir string
}

// outPath places the converted file next to the input unless an output
// directory was given.
func (cv *converter) outPath(in, name string) string {
	if cv.outDir == "" {
		return filepath.Join(filepath.Dir(in), name)
	}
	return filepath.Join(cv.outDir, name)
}

func decodeFile(name string) (*container.Container, []container.Mismatch, int, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, nil, 0, err
	}
	defer f.Close()

	decoder := container.NewDecoder(f)
	if err := decoder.Decode(); err != nil {
		return nil, nil, 0, fmt.Errorf("%s: %w", name, err)
	}
	return decoder.Container, decoder.Mismatches, int(decoder.Container.Header.Uint("flen")), nil
}

func (cv *converter) toText(name string) error {
	log := convertLog.Named("toText")

	c, mismatches, size, err := decodeFile(name)
	if err != nil {
		return err
	}
	for _, m := range mismatches {
		log.Warn("mismatch", zap.String("file", name), zap.Stringer("mismatch", m))
	}

	text, err := textform.ToText(c, cv.mode, cv.reg)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	out := cv.outPath(name, filepath.Base(name)+textExt)
	if err := ioutil.WriteFile(out, text, 0644); err != nil {
		return err
	}
	log.Info("converted",
		zap.String("in", name),
		zap.String("out", out),
		zap.String("size", humanize.Bytes(uint64(size))),
		zap.String("text", humanize.Bytes(uint64(len(text)))),
	)
	return nil
}

func (cv *converter) fromText(name string) error {
	log := convertLog.Named("fromText")

	text, err := ioutil.ReadFile(name)
	if err != nil {
		return err
	}
	c, err := textform.FromText(text, cv.reg)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	data, err := container.Encode(c)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	base := filepath.Base(name)
	if strings.HasSuffix(base, textExt) {
		base = strings.TrimSuffix(base, textExt)
	} else {
		base += binaryExt[c.Format]
	}
	out := cv.outPath(name, base)
	if err := ioutil.WriteFile(out, data, 0644); err != nil {
		return err
	}
	log.Info("converted",
		zap.String("in", name),
		zap.String("out", out),
		zap.String("size", humanize.Bytes(uint64(len(data)))),
	)
	return nil
}

// check decodes a binary file and verifies that it survives a trip through
// the text form in the selected mode unchanged.
func (cv *converter) check(name string) error {
	log := convertLog.Named("check")

	raw, err := ioutil.ReadFile(name)
	if err != nil {
		return err
	}
	decoder := container.NewDecoder(bytes.NewReader(raw))
	if err := decoder.Decode(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	c := decoder.Container

	want, err := container.Encode(c)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	text, err := textform.ToText(c, cv.mode, cv.reg)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	back, err := textform.FromText(text, cv.reg)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	got, err := container.Encode(back)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if !bytes.Equal(want, got) {
		return fmt.Errorf("%w - %s: %s text re-encodes to %s, expected %s", errRoundTrip, name, cv.mode,
			humanize.Bytes(uint64(len(got))), humanize.Bytes(uint64(len(want))))
	}

	log.Info("checked",
		zap.String("file", name),
		zap.Bool("identical", bytes.Equal(raw, want)),
		zap.Int("mismatches", len(decoder.Mismatches)),
		zap.String("size", humanize.Bytes(uint64(len(raw)))),
	)
	return nil
}
