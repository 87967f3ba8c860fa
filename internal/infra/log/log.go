package log

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rprtr258/fun"
	"github.com/rprtr258/scuf"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"
)

func formatLevel(i any) string {
	s, _ := i.(string)
	bg := fun.Switch(s, scuf.BgRed).
		Case(scuf.BgBlue, zerolog.LevelInfoValue).
		Case(scuf.BgGreen, zerolog.LevelWarnValue).
		Case(scuf.BgYellow, zerolog.LevelErrorValue).
		End()

	return scuf.String(" "+strings.ToUpper(s)+" ", bg, scuf.FgBlack)
}

func formatTimestamp(i any) string {
	s, _ := i.(string)
	t, err := time.Parse(zerolog.TimeFieldFormat, s)
	if err != nil {
		return s
	}

	return scuf.String(t.Format("[15:04:05.000]"), scuf.ModFaint, scuf.FgWhite)
}

func isTerminal(out io.Writer) bool {
	f, ok := out.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// New builds console logger writing to out.
// Colors are used only if out is a terminal.
func New(out io.Writer, debug bool) zerolog.Logger {
	level := fun.IF(debug, zerolog.DebugLevel, zerolog.InfoLevel)

	writer := zerolog.ConsoleWriter{ //nolint:exhaustruct // not needed
		Out:        out,
		NoColor:    true,
		TimeFormat: "15:04:05.000",
	}
	if isTerminal(out) {
		writer.NoColor = false
		writer.FormatLevel = formatLevel
		writer.FormatTimestamp = formatTimestamp
	}

	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Logger().
		Output(writer)
}

// Setup replaces global logger used by every package.
func Setup(out io.Writer, debug bool) {
	log.Logger = New(out, debug)
}
