// Command gapng splits, joins, and inspects animated PNG files from the
// command line.
//
// Usage:
//
//	gapng split [options] <input.png>                 APNG → per-frame PNGs (use "-" for stdin)
//	gapng join [options] <frame.png> [<frame.png>...] PNG frames → APNG (-o - for stdout)
//	gapng info <input.png>                            Display animation metadata
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/deepteams/apng/mux"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "split":
		err = runSplit(os.Args[2:])
	case "join":
		err = runJoin(os.Args[2:])
	case "info":
		err = runInfo(os.Args[2:])
	case "-h", "-help", "--help", "help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "gapng: unknown command %q\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "gapng: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage:
  gapng split [options] <input.png>                 Extract animation frames as standalone PNGs
  gapng join [options] <frame.png> [<frame.png>...] Assemble PNG frames into an animated PNG
  gapng info <input.png>                            Display animation metadata

Use "-" as input to read from stdin; "gapng join -o -" writes to stdout.

Run "gapng <command> -h" for command-specific options.
`)
}

// readInput returns the contents of the given path. "-" reads stdin.
func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

// --- split ---

func runSplit(args []string) error {
	fs := flag.NewFlagSet("split", flag.ContinueOnError)
	outDir := fs.String("o", ".", "output directory")
	prefix := fs.String("prefix", "", "frame file name prefix (default: input base name)")
	forceLoop := fs.Bool("force-loop", false, "report infinite looping regardless of the stored play count")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("split: missing input file\nUsage: gapng split [options] <input.png>")
	}
	inputPath := fs.Arg(0)

	data, err := readInput(inputPath)
	if err != nil {
		return err
	}

	d, err := mux.NewDemuxerWithOptions(data, &mux.Options{ForceLoop: *forceLoop})
	if err != nil {
		return fmt.Errorf("split: %w", err)
	}

	if *prefix == "" {
		if inputPath == "-" {
			*prefix = "frame"
		} else {
			*prefix = strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
		}
	}
	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		return err
	}

	for i := 0; i < d.NumFrames(); i++ {
		frame, err := d.Frame(i)
		if err != nil {
			return fmt.Errorf("split: %w", err)
		}
		outPath := filepath.Join(*outDir, fmt.Sprintf("%s_%03d.png", *prefix, i))
		if err := os.WriteFile(outPath, frame.Data, 0o644); err != nil {
			os.Remove(outPath)
			return err
		}
	}

	loop := "infinite"
	if d.LoopCount() > 0 {
		loop = fmt.Sprintf("%d", d.LoopCount())
	}
	fmt.Fprintf(os.Stderr, "Split %s → %d frames in %s (loop %s, play time %v)\n",
		inputPath, d.NumFrames(), *outDir, loop, d.PlayTime())
	return nil
}

// --- join ---

func runJoin(args []string) error {
	fs := flag.NewFlagSet("join", flag.ContinueOnError)
	output := fs.String("o", "out.png", `output path ("-" for stdout)`)
	delayMS := fs.Int("delay", 100, "per-frame display time in milliseconds")
	loops := fs.Int("loops", 0, "play count, 0 loops forever")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("join: missing frame files\nUsage: gapng join [options] <frame.png> [<frame.png>...]")
	}

	m := mux.NewMuxer()
	m.SetLoopCount(*loops)
	opts := &mux.FrameOptions{Duration: time.Duration(*delayMS) * time.Millisecond}
	for _, path := range fs.Args() {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if err := m.AddFrame(data, opts); err != nil {
			return fmt.Errorf("join: %s: %w", path, err)
		}
	}

	if *output == "-" {
		return m.Assemble(os.Stdout)
	}

	out, err := os.Create(*output)
	if err != nil {
		return err
	}
	if err := m.Assemble(out); err != nil {
		out.Close()
		os.Remove(*output)
		return fmt.Errorf("join: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(*output)
		return err
	}

	fi, _ := os.Stat(*output)
	fmt.Fprintf(os.Stderr, "Joined %d frames → %s (%d bytes)\n", m.NumFrames(), *output, fi.Size())
	return nil
}

// --- info ---

func runInfo(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("info: missing input file\nUsage: gapng info <input.png>")
	}
	inputPath := args[0]

	data, err := readInput(inputPath)
	if err != nil {
		return err
	}

	d, err := mux.NewDemuxer(data)
	if err != nil {
		return fmt.Errorf("info: %w", err)
	}
	feat := d.GetFeatures()

	name := inputPath
	if inputPath == "-" {
		name = "<stdin>"
	}

	fmt.Printf("File:       %s\n", name)
	fmt.Printf("Dimensions: %d x %d\n", feat.Width, feat.Height)
	fmt.Printf("Color type: %s, %d-bit\n", colorTypeName(feat.ColorType), feat.BitDepth)
	fmt.Printf("Interlaced: %v\n", feat.Interlaced)
	fmt.Printf("Alpha:      %v\n", feat.HasAlpha)
	fmt.Printf("Animation:  %v\n", feat.HasAnimation)
	if feat.HasAnimation {
		fmt.Printf("Frames:     %d\n", feat.FrameCount)
		loop := "infinite"
		if feat.LoopCount > 0 {
			loop = fmt.Sprintf("%d", feat.LoopCount)
		}
		fmt.Printf("Loop count: %s\n", loop)
		fmt.Printf("Play time:  %v\n", feat.PlayTime)
		for i := 0; i < d.NumFrames(); i++ {
			f, err := d.Frame(i)
			if err != nil {
				return fmt.Errorf("info: %w", err)
			}
			def := ""
			if f.IsDefault {
				def = " (default image)"
			}
			fmt.Printf("Frame %2d:   %dx%d at (%d,%d), %v, dispose %s, blend %s%s\n",
				i, f.Width, f.Height, f.OffsetX, f.OffsetY, f.Duration, f.DisposeOp, f.BlendOp, def)
		}
	}

	if inputPath != "-" {
		fi, err := os.Stat(inputPath)
		if err == nil {
			fmt.Printf("File size:  %d bytes\n", fi.Size())
		}
	}

	return nil
}

// colorTypeName maps a PNG color type byte to a readable name.
func colorTypeName(ct byte) string {
	switch ct {
	case 0:
		return "grayscale"
	case 2:
		return "truecolor"
	case 3:
		return "indexed"
	case 4:
		return "grayscale+alpha"
	case 6:
		return "truecolor+alpha"
	default:
		return fmt.Sprintf("unknown (%d)", ct)
	}
}
