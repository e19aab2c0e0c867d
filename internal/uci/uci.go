// Package uci implements the Universal Chess Interface protocol loop for
// Stratus.
package uci

import (
	"bufio"
	"fmt"
	"os"
	"runtime/pprof"
	"strconv"
	"strings"
	"time"

	"github.com/hailam/stratus/internal/board"
	"github.com/hailam/stratus/internal/engine"
	"github.com/hailam/stratus/internal/storage"
)

const (
	engineName   = "Stratus"
	engineAuthor = "the Stratus authors"
)

// UCI drives the protocol: it parses commands from stdin, forwards them to
// the engine, and prints info lines and bestmove responses.
type UCI struct {
	engine   *engine.Engine
	position *board.Position

	// Hashes of every position in the game so far, for repetition
	// detection across the search root.
	positionKeys []uint64

	store *storage.Store

	nnueBigPath   string
	nnueSmallPath string

	searchDone chan struct{}

	profileFile *os.File
}

// New creates a protocol handler around eng. store may be nil; when
// present, option changes persist across sessions.
func New(eng *engine.Engine, store *storage.Store) *UCI {
	u := &UCI{
		engine:   eng,
		position: board.NewPosition(),
		store:    store,
	}
	u.positionKeys = []uint64{u.position.Hash}
	eng.OnInfo = u.printInfo
	return u
}

// Run reads commands until EOF or quit.
func (u *UCI) Run() {
	scanner := bufio.NewScanner(os.Stdin)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "uci":
			u.handleUCI()
		case "isready":
			fmt.Println("readyok")
		case "ucinewgame":
			u.handleNewGame()
		case "position":
			u.handlePosition(args)
		case "go":
			u.handleGo(args)
		case "stop":
			u.handleStop()
		case "quit":
			u.handleStop()
			u.stopProfile()
			return
		case "setoption":
			u.handleSetOption(args)
		case "d":
			fmt.Println(u.position.String())
		case "perft":
			u.handlePerft(args)
		}
	}
}

func (u *UCI) handleUCI() {
	fmt.Printf("id name %s\n", engineName)
	fmt.Printf("id author %s\n", engineAuthor)
	fmt.Println()
	fmt.Println("option name Hash type spin default 64 min 1 max 4096")
	fmt.Println("option name Threads type spin default 1 min 1 max 256")
	fmt.Println("option name UseNNUE type check default false")
	fmt.Println("option name EvalFile type string default <empty>")
	fmt.Println("option name EvalFileSmall type string default <empty>")
	fmt.Println("option name Profile type string default <empty>")
	for _, t := range engine.Tunables {
		fmt.Printf("option name %s type spin default %d min %d max %d\n",
			t.Name, t.Def, t.Min, t.Max)
	}
	fmt.Println("uciok")
}

func (u *UCI) handleNewGame() {
	u.waitSearch()
	u.engine.Clear()
	u.position = board.NewPosition()
	u.positionKeys = []uint64{u.position.Hash}
}

// handlePosition parses "position startpos|fen <fen> [moves ...]".
func (u *UCI) handlePosition(args []string) {
	u.waitSearch()
	if len(args) == 0 {
		return
	}

	var pos *board.Position
	var err error
	movesIdx := -1

	switch args[0] {
	case "startpos":
		pos = board.NewPosition()
		for i, a := range args {
			if a == "moves" {
				movesIdx = i
				break
			}
		}
	case "fen":
		fenEnd := len(args)
		for i, a := range args {
			if a == "moves" {
				movesIdx = i
				fenEnd = i
				break
			}
		}
		pos, err = board.ParseFEN(strings.Join(args[1:fenEnd], " "))
		if err != nil {
			fmt.Fprintf(os.Stderr, "info string invalid FEN: %v\n", err)
			return
		}
	default:
		return
	}

	keys := []uint64{pos.Hash}
	if movesIdx >= 0 {
		for _, moveStr := range args[movesIdx+1:] {
			m, err := board.ParseMove(moveStr, pos)
			if err != nil {
				fmt.Fprintf(os.Stderr, "info string invalid move: %s\n", moveStr)
				return
			}
			undo := pos.MakeMove(m)
			if !undo.Valid {
				fmt.Fprintf(os.Stderr, "info string illegal move: %s\n", moveStr)
				return
			}
			keys = append(keys, pos.Hash)
		}
	}

	u.position = pos
	u.positionKeys = keys
}

// handleGo parses limits and launches the search on its own goroutine so
// the loop keeps accepting stop.
func (u *UCI) handleGo(args []string) {
	u.waitSearch()

	limits := engine.Limits{}
	for i := 0; i < len(args); i++ {
		next := func() (int, bool) {
			if i+1 < len(args) {
				v, err := strconv.Atoi(args[i+1])
				i++
				return v, err == nil
			}
			return 0, false
		}
		switch args[i] {
		case "depth":
			if v, ok := next(); ok {
				limits.Depth = v
			}
		case "nodes":
			if v, ok := next(); ok {
				limits.Nodes = uint64(v)
			}
		case "movetime":
			if v, ok := next(); ok {
				limits.MoveTime = time.Duration(v) * time.Millisecond
			}
		case "wtime":
			if v, ok := next(); ok {
				limits.Time[board.White] = time.Duration(v) * time.Millisecond
			}
		case "btime":
			if v, ok := next(); ok {
				limits.Time[board.Black] = time.Duration(v) * time.Millisecond
			}
		case "winc":
			if v, ok := next(); ok {
				limits.Inc[board.White] = time.Duration(v) * time.Millisecond
			}
		case "binc":
			if v, ok := next(); ok {
				limits.Inc[board.Black] = time.Duration(v) * time.Millisecond
			}
		case "movestogo":
			if v, ok := next(); ok {
				limits.MovesToGo = v
			}
		case "infinite":
			limits.Infinite = true
		}
	}

	pos := u.position.Copy()
	u.engine.SetPositionHistory(u.positionKeys)
	gamePly := len(u.positionKeys) - 1

	u.searchDone = make(chan struct{})
	go func() {
		defer close(u.searchDone)
		result := u.engine.Search(pos, limits, gamePly)
		fmt.Printf("bestmove %s\n", result.Move)
	}()
}

func (u *UCI) handleStop() {
	u.engine.Stop()
	u.waitSearch()
}

// waitSearch blocks until any running search has printed its bestmove.
func (u *UCI) waitSearch() {
	if u.searchDone != nil {
		<-u.searchDone
		u.searchDone = nil
	}
}

func (u *UCI) handleSetOption(args []string) {
	// setoption name <id> [value <x>]
	name := ""
	value := ""
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "name":
			j := i + 1
			for ; j < len(args) && args[j] != "value"; j++ {
			}
			name = strings.Join(args[i+1:j], " ")
			i = j - 1
		case "value":
			value = strings.Join(args[i+1:], " ")
			i = len(args)
		}
	}
	if name == "" {
		return
	}

	switch strings.ToLower(name) {
	case "hash":
		if mb, err := strconv.Atoi(value); err == nil {
			u.engine.ResizeHash(mb)
			u.savePref(func(p *storage.Preferences) { p.HashMB = mb })
		}
	case "threads":
		if n, err := strconv.Atoi(value); err == nil {
			u.engine.SetThreads(n)
			u.savePref(func(p *storage.Preferences) { p.Threads = n })
		}
	case "usennue":
		use := strings.EqualFold(value, "true")
		if use && u.nnueBigPath != "" {
			if err := u.engine.LoadNNUE(u.nnueBigPath, u.nnueSmallPath); err != nil {
				fmt.Fprintf(os.Stderr, "info string failed to load NNUE: %v\n", err)
				return
			}
		}
		u.engine.SetUseNNUE(use)
		u.savePref(func(p *storage.Preferences) { p.UseNNUE = use })
	case "evalfile":
		u.nnueBigPath = value
	case "evalfilesmall":
		u.nnueSmallPath = value
	case "profile":
		u.startProfile(value)
	default:
		if t := engine.TunableByName(name); t != nil {
			if v, err := strconv.Atoi(value); err == nil {
				t.Set(v)
				u.savePref(func(p *storage.Preferences) {
					if p.Tunables == nil {
						p.Tunables = map[string]int{}
					}
					p.Tunables[t.Name] = t.Value
				})
			}
		}
	}
}

func (u *UCI) savePref(mutate func(*storage.Preferences)) {
	if u.store == nil {
		return
	}
	prefs, err := u.store.LoadPreferences()
	if err != nil {
		prefs = storage.DefaultPreferences()
	}
	mutate(prefs)
	if err := u.store.SavePreferences(prefs); err != nil {
		fmt.Fprintf(os.Stderr, "info string failed to save preferences: %v\n", err)
	}
}

func (u *UCI) startProfile(path string) {
	u.stopProfile()
	if path == "" || path == "<empty>" {
		return
	}
	f, err := os.Create(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "info string failed to create profile: %v\n", err)
		return
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		fmt.Fprintf(os.Stderr, "info string failed to start profile: %v\n", err)
		f.Close()
		return
	}
	u.profileFile = f
	fmt.Fprintf(os.Stderr, "info string CPU profiling to %s\n", path)
}

func (u *UCI) stopProfile() {
	if u.profileFile != nil {
		pprof.StopCPUProfile()
		u.profileFile.Close()
		u.profileFile = nil
	}
}

// printInfo emits one info line per completed iteration.
func (u *UCI) printInfo(info engine.SearchInfo) {
	parts := []string{
		fmt.Sprintf("depth %d", info.Depth),
		fmt.Sprintf("seldepth %d", info.SelDepth),
		fmt.Sprintf("score %s", engine.ScoreString(info.Score)),
		fmt.Sprintf("nodes %d", info.Nodes),
		fmt.Sprintf("nps %d", info.NPS),
		fmt.Sprintf("time %d", info.Time.Milliseconds()),
		fmt.Sprintf("hashfull %d", info.HashFull),
	}
	if len(info.PV) > 0 {
		pvStrs := make([]string, len(info.PV))
		for i, m := range info.PV {
			pvStrs[i] = m.String()
		}
		parts = append(parts, "pv "+strings.Join(pvStrs, " "))
	}
	fmt.Printf("info %s\n", strings.Join(parts, " "))
}

func (u *UCI) handlePerft(args []string) {
	depth := 5
	if len(args) > 0 {
		if d, err := strconv.Atoi(args[0]); err == nil {
			depth = d
		}
	}
	start := time.Now()
	nodes := board.Perft(u.position, depth)
	elapsed := time.Since(start)
	fmt.Printf("info string perft(%d) = %d in %v\n", depth, nodes, elapsed)
}
