package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"qmaze/reinforcement"

	. "github.com/smartystreets/goconvey/convey"
)

func execute(args ...string) (string, error) {
	root := GetRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestTrainCommand(t *testing.T) {
	Convey("When training a small maze from flags", t, func() {
		outDir := t.TempDir()
		out, err := execute("train", "--size", "3", "--episodes", "2000",
			"--seed", "42", "--agent-seed", "7", "--colors=false", "--out", outDir)
		So(err, ShouldBeNil)
		So(out, ShouldContainSubstring, "best path length")
		So(out, ShouldContainSubstring, "solved: true")

		entries, err := os.ReadDir(outDir)
		So(err, ShouldBeNil)
		So(len(entries), ShouldEqual, 1)
		runDir := filepath.Join(outDir, entries[0].Name())
		for _, name := range []string{configFile, historyFile, mazeFile, qtableFile} {
			info, err := os.Stat(filepath.Join(runDir, name))
			So(err, ShouldBeNil)
			So(info.Size(), ShouldBeGreaterThan, 0)
		}

		Convey("The saved config reproduces the run's maze", func() {
			cfg, err := reinforcement.FromYaml(filepath.Join(runDir, configFile))
			So(err, ShouldBeNil)
			So(*cfg.Maze.Seed, ShouldEqual, uint64(42))
			So(cfg.Maze.Size, ShouldEqual, 3)
			So(cfg.Episodes, ShouldEqual, 2000)

			Convey("And the path command replays the saved table", func() {
				out, err := execute("path", "--config", filepath.Join(runDir, configFile),
					"--qtable", filepath.Join(runDir, qtableFile), "--colors=false")
				So(err, ShouldBeNil)
				So(out, ShouldContainSubstring, "solved: true")
				So(out, ShouldContainSubstring, "(1,0)")
				So(out, ShouldContainSubstring, "Total: ")
			})
		})
	})

	Convey("When the maze size is invalid", t, func() {
		_, err := execute("train", "--size", "0", "--out", t.TempDir())
		So(err, ShouldNotBeNil)
	})

	Convey("When replaying without a maze seed", t, func() {
		_, err := execute("path", "--size", "3", "--qtable", "missing.bin")
		So(err, ShouldNotBeNil)
	})
}

func TestSweepCommand(t *testing.T) {
	Convey("When sweeping a few seeds", t, func() {
		out, err := execute("sweep", "--size", "3", "--episodes", "200",
			"--seed", "5", "--agent-seed", "9", "--runs", "3", "--parallel", "2")
		So(err, ShouldBeNil)
		lines := strings.Split(strings.TrimSpace(out), "\n")
		So(len(lines), ShouldEqual, 4)
		So(lines[0], ShouldStartWith, "RUN")
		So(lines[1], ShouldStartWith, "seed-5")
		So(lines[3], ShouldStartWith, "seed-7")
	})
}

func TestTrainingConfig(t *testing.T) {
	Convey("Given a config file", t, func() {
		path := filepath.Join(t.TempDir(), "config.yaml")
		err := os.WriteFile(path, []byte("kind: training\ndef:\n  maze:\n    size: 4\n  episodes: 30\n"), 0o644)
		So(err, ShouldBeNil)

		Convey("When no flags override it", func() {
			root := GetRootCommand()
			cmd, _, err := root.Find([]string{"train"})
			So(err, ShouldBeNil)
			So(cmd.ParseFlags([]string{"--config", path}), ShouldBeNil)

			opts := &options{configPath: path, episodes: 1000, size: 10}
			cfg, err := opts.trainingConfig(cmd)
			So(err, ShouldBeNil)
			So(cfg.Maze.Size, ShouldEqual, 4)
			So(cfg.Episodes, ShouldEqual, 30)
			So(cfg.Maze.Seed, ShouldBeNil)
		})

		Convey("When flags are set explicitly", func() {
			root := GetRootCommand()
			cmd, _, err := root.Find([]string{"train"})
			So(err, ShouldBeNil)
			So(cmd.ParseFlags([]string{"--episodes", "12", "--seed", "3"}), ShouldBeNil)

			opts := &options{configPath: path, episodes: 12, size: 10, seed: 3}
			cfg, err := opts.trainingConfig(cmd)
			So(err, ShouldBeNil)
			So(cfg.Maze.Size, ShouldEqual, 4)
			So(cfg.Episodes, ShouldEqual, 12)
			So(*cfg.Maze.Seed, ShouldEqual, uint64(3))
		})
	})
}
