// Command interopdemo exercises D3D12 to compute-runtime sharing on the
// software platform.
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"slices"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/interop"
	"github.com/gogpu/interop/backend"
	"github.com/gogpu/interop/d3d12"
	"github.com/gogpu/interop/format"
	"github.com/gogpu/interop/resource"
)

func main() {
	var (
		width   = flag.Int("width", 64, "texture width")
		height  = flag.Int("height", 64, "texture height")
		formats = flag.Bool("formats", false, "list supported formats and exit")
		output  = flag.String("output", "", "write the shared texture to this TIFF file")
		verbose = flag.Bool("v", false, "log at debug level")
	)
	flag.Parse()

	if *formats {
		listFormats(os.Stdout)
		return
	}
	if *verbose {
		interop.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	p, err := backend.InitDefault()
	if err != nil {
		log.Fatalf("Failed to initialize platform: %v", err)
	}
	defer p.Close()

	if err := run(p, *width, *height, *output); err != nil {
		log.Fatalf("Demo failed: %v", err)
	}
	if sw, ok := p.(*backend.SoftwareBackend); ok {
		log.Printf("device: %v", sw.SoftwareDevice().Stats())
		log.Printf("runtime: %v", sw.SoftwareRuntime().Stats())
	}
}

// listFormats prints every supported format with its channel layout and
// its WebGPU equivalent ("-" when WebGPU has none).
func listFormats(w io.Writer) {
	fs := format.Supported()
	slices.Sort(fs)
	for _, f := range fs {
		info, _ := format.Lookup(f)
		ct, err := format.ChannelType(f)
		channel := ct.String()
		if err != nil {
			channel = "-"
		}
		webgpu := "-"
		if g := format.ToGPUTypes(f); g != gputypes.TextureFormatUndefined {
			webgpu = g.String()
		}
		fmt.Fprintf(w, "%-24v %d x %d bytes  %-10v %-14v %v\n", f, info.NumChannels, info.ChannelSize, info.Category, channel, webgpu)
	}
}

// run uploads a pattern through D3D12, round-trips it through the compute
// runtime, and signals a shared fence once the copies are done.
func run(p backend.Platform, w, h int, output string) error {
	ctx := context.Background()
	dev := p.Device()

	ictx, err := interop.NewContext(p.Runtime())
	if err != nil {
		return err
	}
	defer ictx.Close()

	desc := d3d12.Tex2DDesc(d3d12.FormatR8G8B8A8Unorm, uint64(w), uint32(h), 1, 1, d3d12.ResourceFlagNone)
	res, err := resource.New(dev, resource.TextureSettings(desc).Shared())
	if err != nil {
		return err
	}
	defer res.Release()
	log.Printf("created %v (WebGPU %v %v)", res, format.GPUDimension(desc.Dimension), format.ToGPUTypes(desc.Format))

	src := make([]byte, res.LinearSizeInBytes())
	for i := 0; i < len(src); i += 4 {
		x, y := (i/4)%w, (i/4)/w
		copy(src[i:], []byte{byte(x * 255 / max(w-1, 1)), byte(y * 255 / max(h-1, 1)), 0, 255})
	}
	if err := res.UploadDataLinear(src); err != nil {
		return err
	}

	img, err := ictx.ImportImage(ctx, res)
	if err != nil {
		return err
	}
	defer img.Close()

	fence, err := dev.CreateFence(0, d3d12.FenceFlagShared)
	if err != nil {
		return err
	}
	defer fence.Release()
	sem, err := ictx.ImportFence(ctx, dev, fence)
	if err != nil {
		return err
	}
	defer sem.Close()

	// Read through the runtime, invert green, write back.
	host := make([]byte, len(src))
	e, err := img.CopyToHostPtrAsync(nil, host)
	if err != nil {
		return err
	}
	if err := e.Wait(ctx); err != nil {
		return err
	}
	if !bytes.Equal(host, src) {
		return fmt.Errorf("runtime read differs from the uploaded texture")
	}
	for i := 1; i < len(host); i += 4 {
		host[i] = 255 - host[i]
	}
	e, err = img.CopyFromHostPtrAsync(nil, host)
	if err != nil {
		return err
	}
	if _, err := sem.Signal(nil, 1, e); err != nil {
		return err
	}

	// D3D12 side waits on the shared fence before reading.
	if err := fence.Wait(ctx, 1); err != nil {
		return err
	}
	log.Printf("fence reached %d", fence.CompletedValue())

	if output == "" {
		return nil
	}
	f, err := os.Create(output)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := res.WriteTIFF(f); err != nil {
		return err
	}
	log.Printf("wrote %s (%dx%d)", output, w, h)
	return nil
}
