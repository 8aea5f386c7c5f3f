package reinforcement

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func writeConfig(t *testing.T, body string) string {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFromYaml(t *testing.T) {
	Convey("When reading a training config", t, func() {
		path := writeConfig(t, `
kind: training
def:
  hyperParams:
    - key: alpha
      val: 0.5
    - key: epsilonDecay
      val: 0.9
    - key: unknown
      val: 3
  maze:
    size: 4
    seed: 42
  agentSeed: 7
  episodes: 250
  trainingDeadline:
    duration: 2m
`)
		cfg, err := FromYaml(path)
		So(err, ShouldBeNil)
		So(cfg.Maze.Size, ShouldEqual, 4)
		So(*cfg.Maze.Seed, ShouldEqual, uint64(42))
		So(*cfg.AgentSeed, ShouldEqual, uint64(7))
		So(cfg.Episodes, ShouldEqual, 250)
		// absent fields keep their defaults
		So(cfg.ExportEvery, ShouldEqual, 10)

		hp, err := cfg.Hyper()
		So(err, ShouldBeNil)
		So(hp.Alpha, ShouldEqual, 0.5)
		So(hp.EpsilonDecay, ShouldEqual, 0.9)
		So(hp.Gamma, ShouldEqual, DefaultHyperParams().Gamma)

		spec, err := cfg.RunSpec("from-file")
		So(err, ShouldBeNil)
		So(spec.Name, ShouldEqual, "from-file")
		So(spec.MazeSize, ShouldEqual, 4)
		So(spec.Hyper, ShouldResemble, hp)

		Convey("The deadline bounds the training context", func() {
			ctx, cancel, err := cfg.WithTrainingDeadline(context.Background())
			So(err, ShouldBeNil)
			defer cancel()
			deadline, ok := ctx.Deadline()
			So(ok, ShouldBeTrue)
			So(time.Until(deadline), ShouldBeLessThanOrEqualTo, 2*time.Minute)
		})
	})

	Convey("When saving a config and reading it back", t, func() {
		seed := uint64(99)
		cfg := DefaultTrainingConfig()
		cfg.Maze = MazeConfig{Size: 6, Seed: &seed}
		cfg.Episodes = 42
		cfg.HyperParams = []HyperParameter{{Key: KeyGamma, Val: 0.9}}

		path := filepath.Join(t.TempDir(), "run.yaml")
		So(cfg.Save(path), ShouldBeNil)
		loaded, err := FromYaml(path)
		So(err, ShouldBeNil)
		So(loaded.Maze.Size, ShouldEqual, 6)
		So(*loaded.Maze.Seed, ShouldEqual, uint64(99))
		So(loaded.AgentSeed, ShouldBeNil)
		So(loaded.Episodes, ShouldEqual, 42)
		So(loaded.GetHyperParamOrDefault(KeyGamma, 0), ShouldEqual, 0.9)
	})

	Convey("When the config has another kind", t, func() {
		_, err := FromYaml(writeConfig(t, "kind: server\ndef:\n  port: 8080\n"))
		So(errors.Is(err, ErrUnknownKind), ShouldBeTrue)
	})

	Convey("When a hyperparameter is out of range", t, func() {
		_, err := FromYaml(writeConfig(t, `
kind: training
def:
  hyperParams:
    - key: gamma
      val: 1.5
`))
		So(errors.Is(err, ErrInvalidConfig), ShouldBeTrue)
	})

	Convey("When the maze size is invalid", t, func() {
		_, err := FromYaml(writeConfig(t, "kind: training\ndef:\n  maze:\n    size: 0\n"))
		So(errors.Is(err, ErrInvalidConfig), ShouldBeTrue)
	})

	Convey("When the file does not exist", t, func() {
		_, err := FromYaml(filepath.Join(t.TempDir(), "missing.yaml"))
		So(err, ShouldNotBeNil)
	})

	Convey("When no deadline is configured", t, func() {
		ctx, cancel, err := DefaultTrainingConfig().WithTrainingDeadline(context.Background())
		So(err, ShouldBeNil)
		defer cancel()
		_, ok := ctx.Deadline()
		So(ok, ShouldBeFalse)
	})

	Convey("When the deadline is malformed", t, func() {
		cfg := DefaultTrainingConfig()
		cfg.TrainingDeadline = map[string]string{"duration": "soon"}
		_, _, err := cfg.WithTrainingDeadline(context.Background())
		So(err, ShouldNotBeNil)
	})
}
