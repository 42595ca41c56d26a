package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	oryxflv "github.com/ossrs/go-oryx-lib/flv"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	rtmp "github.com/torresjeff/go-rtmp"
	"github.com/torresjeff/go-rtmp/bytestream"
	"github.com/torresjeff/go-rtmp/config"
	"github.com/torresjeff/go-rtmp/flv"
	"github.com/torresjeff/go-rtmp/status"
	"github.com/torresjeff/go-rtmp/tag"
)

var (
	debug      bool
	maxTagSize int

	splitFlags = []cli.Flag{
		&cli.IntFlag{
			Name:        "max-tag-size",
			Usage:       "largest FLV tag body accepted, in bytes",
			Value:       config.DefaultMaxTagSize,
			Destination: &maxTagSize,
		},
	}

	globalFlags = []cli.Flag{
		&cli.BoolFlag{
			Name:        "debug",
			Aliases:     []string{"d"},
			Usage:       "log at debug level in development format",
			Destination: &debug,
		},
	}
)

func main() {
	app := &cli.App{
		Name:  "rtmpstream",
		Usage: "Record RTMP publishers to FLV and inspect FLV files.",
		Flags: globalFlags,
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Accept RTMP publishers and record every stream to FLV.",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "YAML configuration file",
					},
					&cli.StringFlag{
						Name:  "listen",
						Usage: "address to listen on, overrides the configuration",
					},
				}, globalFlags...),
				Action: runServe,
			},
			{
				Name:      "split",
				Usage:     "Split an FLV file into tags and print them.",
				ArgsUsage: "<file.flv>",
				Flags:     append(splitFlags, globalFlags...),
				Action:    runSplit,
			},
			{
				Name:      "check",
				Usage:     "List the tags of an FLV file with an independent demuxer.",
				ArgsUsage: "<file.flv>",
				Action:    runCheck,
			},
			{
				Name:      "aac",
				Usage:     "Extract the AAC audio of an FLV file as ADTS.",
				ArgsUsage: "<file.flv> <out.aac>",
				Flags:     append(splitFlags, globalFlags...),
				Action:    runAAC,
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger(dev bool) (*zap.Logger, error) {
	if dev {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func runServe(c *cli.Context) error {
	cfg := config.Default()
	if path := c.String("config"); path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return err
		}
	}
	if addr := c.String("listen"); addr != "" {
		cfg.Listen = addr
	}
	logger, err := newLogger(debug || cfg.Log.Debug)
	if err != nil {
		return errors.Wrap(err, "create logger")
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := &rtmp.Server{
		Logger: logger,
		Config: cfg,
	}
	return server.Listen(ctx)
}

// readTags feeds the file at path through an FLV splitter and calls fn for
// every tag.
func readTags(logger *zap.Logger, path string, fn func(t tag.Tag) error) (*tag.Driver, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open input")
	}
	defer f.Close()

	driver := tag.NewDriver(flv.NewSplitter(logger, path, maxTagSize))
	in := bytestream.New(bytestream.DefaultBlockSize)
	r := bufio.NewReaderSize(f, config.BufioSize)
	eos := false
	for {
		t, err := driver.GetNextTag(in, eos)
		switch {
		case err == nil:
			if err := fn(t); err != nil {
				return driver, err
			}
			continue
		case status.Is(err, status.EOF):
			return driver, nil
		case !status.Is(err, status.NoData):
			return driver, errors.Wrapf(err, "split %s", path)
		}

		buf := make([]byte, config.BufioSize)
		n, rerr := r.Read(buf)
		in.AppendRaw(buf[:n])
		if rerr == io.EOF {
			eos = true
		} else if rerr != nil {
			return driver, errors.Wrap(rerr, "read input")
		}
	}
}

func runSplit(c *cli.Context) error {
	if c.Args().Len() != 1 {
		return errors.New("usage: rtmpstream split <file.flv>")
	}
	logger, err := newLogger(debug)
	if err != nil {
		return errors.Wrap(err, "create logger")
	}
	defer logger.Sync()

	driver, err := readTags(logger, c.Args().First(), func(t tag.Tag) error {
		fmt.Println(t)
		return nil
	})
	if driver != nil {
		s := driver.Splitter().(*flv.Splitter)
		if info := s.MediaInfo(); info != nil {
			fmt.Println(info)
		}
		fmt.Println(driver.Stats())
	}
	return err
}

func runCheck(c *cli.Context) error {
	if c.Args().Len() != 1 {
		return errors.New("usage: rtmpstream check <file.flv>")
	}
	f, err := os.Open(c.Args().First())
	if err != nil {
		return errors.Wrap(err, "open input")
	}
	defer f.Close()

	d, err := oryxflv.NewDemuxer(bufio.NewReaderSize(f, config.BufioSize))
	if err != nil {
		return errors.Wrap(err, "create demuxer")
	}
	version, hasVideo, hasAudio, err := d.ReadHeader()
	if err != nil {
		return errors.Wrap(err, "read header")
	}
	fmt.Printf("FLV version %d, video %v, audio %v\n", version, hasVideo, hasAudio)

	var tags int
	for {
		tagType, size, ts, err := d.ReadTagHeader()
		if err == io.EOF {
			break
		}
		if err != nil {
			return errors.Wrapf(err, "read header of tag %d", tags)
		}
		if _, err := d.ReadTag(size); err != nil {
			return errors.Wrapf(err, "read tag %d", tags)
		}
		fmt.Printf("%s size=%d ts=%d\n", tagType, size, ts)
		tags++
	}
	fmt.Printf("%d tags\n", tags)
	return nil
}

func runAAC(c *cli.Context) error {
	if c.Args().Len() != 2 {
		return errors.New("usage: rtmpstream aac <file.flv> <out.aac>")
	}
	logger, err := newLogger(debug)
	if err != nil {
		return errors.Wrap(err, "create logger")
	}
	defer logger.Sync()

	out, err := os.Create(c.Args().Get(1))
	if err != nil {
		return errors.Wrap(err, "create output")
	}
	w := bufio.NewWriterSize(out, config.BufioSize)
	adts, err := flv.NewADTSWriter(w)
	if err != nil {
		out.Close()
		return err
	}

	_, err = readTags(logger, c.Args().First(), func(t tag.Tag) error {
		if ft, ok := t.(*flv.Tag); ok {
			return adts.WriteTag(ft)
		}
		return nil
	})
	if ferr := w.Flush(); err == nil {
		err = ferr
	}
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		logger.Sugar().Infof("wrote %d AAC frames to %s", adts.Frames, c.Args().Get(1))
	}
	return err
}
