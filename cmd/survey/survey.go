package main

import (
	"context"

	"github.com/Garik-/dse/pkg/container"
	"github.com/Garik-/dse/pkg/ledger"
	"github.com/Garik-/dse/pkg/registry"
	"github.com/Garik-/dse/pkg/stream"
	"github.com/Garik-/dse/pkg/velocity"
	"github.com/dustin/go-humanize"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

type stats struct {
	files      int
	bytes      uint64
	mismatches int
	failed     error
}

// records lists every fixed-layout record of c.
func records(c *container.Container) []*ledger.Record {
	out := []*ledger.Record{c.Header}
	for _, ch := range c.Chunks {
		out = append(out, ch.Header)
		switch p := ch.Payload.(type) {
		case *container.Song:
			out = append(out, p.Info)
		case *container.Track:
			out = append(out, p.Preamble)
		case *container.WaveTable:
			for _, s := range p.Slots {
				if s != nil {
					out = append(out, s)
				}
			}
		case *container.ProgramTable:
			for _, prg := range p.Slots {
				if prg == nil {
					continue
				}
				out = append(out, prg.Info)
				out = append(out, prg.LFOs...)
				out = append(out, prg.Splits...)
			}
		case *container.KeygroupTable:
			out = append(out, p.Groups...)
		}
	}
	return out
}

// runSurvey feeds every decodable file to s, and the tracks of sequences to
// vel when it is not nil. Files that fail to decode are skipped and reported
// in stats.failed.
func runSurvey(parent context.Context, paths <-chan string, cntRoutines int, s *registry.Survey, vel *velocity.Collector) (*stats, error) {
	log := surveyLog.Named("runSurvey")
	ctx, cancel := context.WithCancel(parent)
	results, done := decodeWorker(ctx, paths, cntRoutines)

	defer func() {
		log.Debug("cancel")
		cancel()
		<-done // wait decodeWorker closed

		// drain so the list reader can exit
		go func() {
			for range paths {
			}
		}()
	}()

	st := &stats{}
	for result := range results {
		if result.err != nil {
			log.Warn("skipped", zap.String("name", result.name), zap.Error(result.err))
			st.failed = multierr.Append(st.failed, result.err)
			continue
		}

		c := result.container
		st.files++
		st.bytes += uint64(c.Header.Uint("flen"))
		st.mismatches += result.mismatches
		log.Debug("result",
			zap.String("name", result.name),
			zap.Stringer("format", c.Format),
			zap.Int("chunks", len(c.Chunks)),
			zap.String("size", humanize.Bytes(uint64(c.Header.Uint("flen")))),
		)

		for _, rec := range records(c) {
			s.Observe(rec)
		}
		if vel != nil && c.Format == container.SMDL {
			for _, trk := range stream.Tracks(c) {
				if err := vel.Observe(trk); err != nil {
					return nil, err
				}
			}
		}
	}
	return st, ctx.Err()
}
