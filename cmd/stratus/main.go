// Command stratus is the UCI entry point of the engine.
package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"
	"runtime/pprof"

	"github.com/hailam/stratus/internal/engine"
	"github.com/hailam/stratus/internal/storage"
	"github.com/hailam/stratus/internal/uci"
)

// Stockfish-compatible network file names searched for at startup.
const (
	defaultBigNet   = "nn-c288c895ea92.nnue"
	defaultSmallNet = "nn-37f18f62d772.nnue"
)

var cpuprofile = flag.String("cpuprofile", "", "write cpu profile to file")

func main() {
	flag.Parse()

	profilePath := *cpuprofile
	if profilePath == "" {
		profilePath = os.Getenv("CPUPROFILE")
	}
	if profilePath != "" {
		f, err := os.Create(profilePath)
		if err != nil {
			log.Fatal("could not create CPU profile: ", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal("could not start CPU profile: ", err)
		}
		defer pprof.StopCPUProfile()
	}

	store := openStore()
	prefs := loadPreferences(store)

	eng := engine.NewEngine(prefs.HashMB, prefs.Threads)
	applyTunables(prefs)

	if prefs.UseNNUE {
		if err := autoLoadNNUE(eng); err != nil {
			log.Printf("NNUE not loaded: %v (using classical evaluation)", err)
		}
	}

	protocol := uci.New(eng, store)
	protocol.Run()

	if store != nil {
		store.Close()
	}
}

// openStore opens the preference store; a failure is not fatal, the
// engine just runs with defaults.
func openStore() *storage.Store {
	dir, err := storage.DataDir()
	if err != nil {
		log.Printf("preference store unavailable: %v", err)
		return nil
	}
	store, err := storage.Open(filepath.Join(dir, "prefs"))
	if err != nil {
		log.Printf("preference store unavailable: %v", err)
		return nil
	}
	return store
}

func loadPreferences(store *storage.Store) *storage.Preferences {
	if store == nil {
		return storage.DefaultPreferences()
	}
	prefs, err := store.LoadPreferences()
	if err != nil {
		return storage.DefaultPreferences()
	}
	if prefs.HashMB < 1 {
		prefs.HashMB = 64
	}
	if prefs.Threads < 1 {
		prefs.Threads = 1
	}
	return prefs
}

func applyTunables(prefs *storage.Preferences) {
	for name, value := range prefs.Tunables {
		if t := engine.TunableByName(name); t != nil {
			t.Set(value)
		}
	}
}

// autoLoadNNUE looks for the network files next to the binary and in the
// working directory.
func autoLoadNNUE(eng *engine.Engine) error {
	dirs := []string{"."}
	if exe, err := os.Executable(); err == nil {
		dirs = append(dirs, filepath.Dir(exe))
	}

	var lastErr error
	for _, dir := range dirs {
		big := filepath.Join(dir, defaultBigNet)
		small := filepath.Join(dir, defaultSmallNet)
		if _, err := os.Stat(big); err != nil {
			lastErr = err
			continue
		}
		if _, err := os.Stat(small); err != nil {
			lastErr = err
			continue
		}
		return eng.LoadNNUE(big, small)
	}
	return lastErr
}
