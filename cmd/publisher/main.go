package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"strings"
	"time"

	"github.com/yanun0323/logs"
	"github.com/yanun0323/pkg/sys"
	"golang.org/x/sync/errgroup"

	"github.com/blacknand/AlgoPulse/internal/chaos"
	"github.com/blacknand/AlgoPulse/internal/mdg"
	"github.com/blacknand/AlgoPulse/internal/transport"
)

func main() {
	endpoint := flag.String("endpoint", "tcp://*:5555", "Endpoint to bind or publish to")
	interval := flag.Duration("interval", 100*time.Millisecond, "Delay between quotes")
	count := flag.Int("count", 0, "Number of quotes to publish; 0 runs until signalled")
	symbols := flag.String("symbols", mdg.DefaultSymbol, "Comma separated symbols")
	mode := flag.String("mode", mdg.ModeFixed, "Quote mode: fixed|random")
	basePrice := flag.Float64("base-price", mdg.DefaultBasePrice, "Base price")
	seed := flag.Int64("seed", 0, "Random seed; 0 uses the clock")
	verbose := flag.Bool("verbose", false, "Log every published quote")
	dropRate := flag.Float64("chaos-drop", 0, "Chaos drop rate (0-1)")
	dupRate := flag.Float64("chaos-dup", 0, "Chaos duplicate rate (0-1)")
	corruptRate := flag.Float64("chaos-corrupt", 0, "Chaos corrupt rate (0-1)")
	reorder := flag.Int("chaos-reorder", 1, "Chaos reorder window (1 disables)")
	flag.Parse()

	if *interval <= 0 {
		log.Fatalf("interval must be > 0")
	}

	generator, err := mdg.NewGenerator(mdg.Config{
		Symbols:   strings.Split(*symbols, ","),
		Mode:      *mode,
		BasePrice: *basePrice,
		Seed:      *seed,
	})
	if err != nil {
		log.Fatalf("generator init failed: %v", err)
	}
	chaosCfg := chaos.Config{
		Seed:          *seed,
		DropRate:      *dropRate,
		DuplicateRate: *dupRate,
		CorruptRate:   *corruptRate,
		ReorderWindow: *reorder,
	}
	engine, err := chaos.NewEngine(chaosCfg)
	if err != nil {
		log.Fatalf("chaos init failed: %v", err)
	}
	if chaosCfg.Enabled() {
		logs.Infof("chaos enabled: drop %g, duplicate %g, corrupt %g, reorder window %d",
			chaosCfg.DropRate, chaosCfg.DuplicateRate, chaosCfg.CorruptRate, chaosCfg.ReorderWindow)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pub, err := transport.Listen(ctx, *endpoint)
	if err != nil {
		log.Fatalf("publisher init failed: %v", err)
	}
	defer pub.Close()
	logs.Infof("publisher started on %s", *endpoint)

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		select {
		case <-sys.Shutdown():
			cancel()
		case <-ctx.Done():
		}
		return nil
	})
	eg.Go(func() error {
		defer cancel()
		return publishLoop(ctx, pub, generator, engine, *interval, *count, *verbose)
	})
	if err := eg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("publish failed: %v", err)
	}
}

func publishLoop(ctx context.Context, pub transport.Publisher, generator *mdg.Generator, engine *chaos.Engine, interval time.Duration, count int, verbose bool) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var (
		buf  []byte
		sent int
	)
	send := func(msgs [][]byte) error {
		for _, msg := range msgs {
			if err := pub.Publish(ctx, msg); err != nil {
				return err
			}
			if verbose {
				logs.Infof("published: %s", msg)
			}
		}
		return nil
	}

	for count <= 0 || sent < count {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		buf = generator.NextPayload(buf[:0], time.Now())
		if err := send(engine.Process(buf)); err != nil {
			return err
		}
		sent++
	}
	if err := send(engine.Flush()); err != nil {
		return err
	}
	logs.Infof("published %d quotes", sent)
	return nil
}
