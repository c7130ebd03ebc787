package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/cespare/xxhash/v2"
	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"github.com/richgrov/chunkwire"
	"github.com/richgrov/chunkwire/blocks"
	"github.com/richgrov/chunkwire/chunk"
	"github.com/richgrov/chunkwire/config"
	"github.com/richgrov/chunkwire/level"
	"github.com/richgrov/chunkwire/traits"
	"github.com/richgrov/chunkwire/version"
)

// Stand-in for a client connection that only records what it was sent
type dumpViewer struct {
	version version.Version
	payload []byte
}

func (v *dumpViewer) ProtocolVersion() version.Version {
	return v.version
}

func (v *dumpViewer) WritePacket(payload []byte) error {
	v.payload = payload
	return nil
}

type reporter struct {
	log       *logrus.Logger
	dimension chunkwire.Dimension
	verify    bool
	failures  int
}

func (r *reporter) OnChunkSent(e *chunkwire.ChunkSentEvent) {
	entry := r.log.WithFields(logrus.Fields{
		"version": e.Version.String(),
		"size":    humanize.Bytes(uint64(len(e.Payload))),
		"xxhash":  fmt.Sprintf("%016x", xxhash.Sum64(e.Payload)),
	})

	if r.verify {
		if err := r.check(e); err != nil {
			r.failures++
			entry.WithError(err).Error("verification failed")
			return
		}
		entry = entry.WithField("verified", true)
	}

	entry.Info("encoded chunk")
}

func (r *reporter) OnEncodeFailed(e *chunkwire.ChunkEncodeFailedEvent) {
	r.failures++
}

func (r *reporter) check(e *chunkwire.ChunkSentEvent) error {
	decoded, err := chunk.Decode(e.Payload, e.Version, chunk.DecodeOptions{
		MaxSections: r.dimension.MaxSections(e.Version),
		SkyLight:    r.dimension.HasSkyLight(),
	})
	if err != nil {
		return err
	}

	if decoded.X != e.Pos.X || decoded.Z != e.Pos.Z {
		return fmt.Errorf("decoded position %d, %d does not match %d, %d", decoded.X, decoded.Z, e.Pos.X, e.Pos.Z)
	}
	return nil
}

func buildTerrain(world *chunkwire.World, demo config.DemoTerrain) error {
	biome, ok := level.BiomeByName(demo.Biome)
	if !ok {
		return fmt.Errorf("unknown biome %q", demo.Biome)
	}

	baseX := demo.ChunkX * level.SectionWidth
	baseZ := demo.ChunkZ * level.SectionWidth
	y := int32(0)

	for _, layer := range demo.Layers {
		block, ok := blocks.ByName(layer.Block)
		if !ok {
			return fmt.Errorf("unknown block %q", layer.Block)
		}

		for i := 0; i < layer.Height; i++ {
			for x := int32(0); x < level.SectionWidth; x++ {
				for z := int32(0); z < level.SectionWidth; z++ {
					world.SetBlock(chunkwire.BlockPos{X: baseX + x, Y: y, Z: baseZ + z}, block)
				}
			}
			y++
		}
	}

	for x := int32(0); x < level.SectionWidth; x += 4 {
		for z := int32(0); z < level.SectionWidth; z += 4 {
			for by := int32(0); by < int32(world.Dimension().Sections()*level.SectionWidth); by += 4 {
				world.SetBiome(chunkwire.BlockPos{X: baseX + x, Y: by, Z: baseZ + z}, biome)
			}
		}
	}
	return nil
}

func run(configPath string, verify bool) error {
	settings, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := settings.Logger()
	chunk.SetLogger(logger)

	dimension, err := chunkwire.ParseDimension(settings.Dimension)
	if err != nil {
		return err
	}

	versions, err := settings.Versions()
	if err != nil {
		return err
	}

	world := chunkwire.NewWorld(&chunkwire.Config{
		Dimension:       dimension,
		PrepareVersions: versions,
		Logger:          logger,
	})
	defer world.Shutdown()

	report := &reporter{log: logger, dimension: dimension, verify: verify}
	traits.Set(world, report)

	if err := buildTerrain(world, settings.Demo); err != nil {
		return err
	}

	pos := level.ChunkPos{X: settings.Demo.ChunkX, Z: settings.Demo.ChunkZ}
	for _, v := range versions {
		world.AddViewer(pos, &dumpViewer{version: v})
	}
	world.Tick()

	if report.failures > 0 {
		return fmt.Errorf("%d versions failed", report.failures)
	}
	return nil
}

func main() {
	configPath := flag.String("config", "", "path to a YAML settings file")
	verify := flag.Bool("verify", false, "decode every payload after encoding it")
	flag.Parse()

	if err := run(*configPath, *verify); err != nil {
		logrus.WithError(err).Error("chunkdump failed")
		os.Exit(1)
	}
}
