package main

import (
	"alcyxob/therapy-app/internal/client"
	"alcyxob/therapy-app/internal/domain"
	"alcyxob/therapy-app/internal/execution"
	"alcyxob/therapy-app/internal/service"
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

const controlsHelp = "Controles: p pausa/reanudar, n siguiente, b anterior, r reiniciar postura, q salir"

var errQuit = errors.New("session interrupted")

func newRunCmd(opts *options) *cobra.Command {
	var (
		initialPain int
		resume      string
		interval    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the assigned series with a live timer",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			fetchCtx, cancel := context.WithTimeout(ctx, client.DefaultTimeout)
			series, err := c.AssignedSeries(fetchCtx)
			cancel()
			if err != nil {
				return err
			}

			values := url.Values{}
			if resume != "" {
				if values, err = url.ParseQuery(resume); err != nil {
					return fmt.Errorf("invalid --resume value: %w", err)
				}
			}
			if cmd.Flags().Changed("initial-pain") {
				values.Set(execution.ParamInitialPain, strconv.Itoa(initialPain))
			}
			m, err := execution.Restore(series.Steps(), values)
			if err != nil {
				return fmt.Errorf("%w (use --initial-pain 0..4)", err)
			}

			lines := readLines(cmd.InOrStdin())
			out := cmd.OutOrStdout()
			completion, err := runInteractive(ctx, series, execution.NewRunner(m, interval), lines, out)
			if errors.Is(err, errQuit) {
				return nil
			}
			if err != nil {
				return err
			}

			painAfter, comment, err := askPainAfter(lines, out)
			if err != nil {
				return err
			}
			report := completion.Report(painAfter, comment, uuid.NewString())
			submitCtx, cancel := context.WithTimeout(ctx, client.DefaultTimeout)
			defer cancel()
			ack, err := c.RecordSession(submitCtx, report)
			if err != nil {
				_, _ = fmt.Fprintf(out, "No se pudo registrar la sesión: %v\n", err)
				return err
			}
			_, _ = fmt.Fprintln(out, ack.Message)
			return nil
		},
	}
	cmd.Flags().IntVar(&initialPain, "initial-pain", 0, "pain level before starting (0..4)")
	cmd.Flags().StringVar(&resume, "resume", "", "snapshot printed by an interrupted run")
	cmd.Flags().DurationVar(&interval, "interval", time.Second, "length of one timer second")
	_ = cmd.Flags().MarkHidden("interval")
	return cmd
}

// readLines forwards trimmed input lines. The channel closes at EOF.
func readLines(in io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- strings.TrimSpace(scanner.Text())
		}
	}()
	return lines
}

// runInteractive drives the runner until the session finishes. Quitting
// prints a --resume snapshot and returns errQuit.
func runInteractive(ctx context.Context, series *service.EnrichedSeries, r *execution.Runner, lines <-chan string, out io.Writer) (execution.Completion, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	runErr := make(chan error, 1)
	go func() { runErr <- r.Run(runCtx) }()

	_, _ = fmt.Fprintf(out, "%s\n%s\n", series.Name, controlsHelp)
	events := r.Events()
	lastIndex := -1
	show := func(ev execution.Event) {
		if ev.State == execution.Finished {
			return
		}
		if ev.Index != lastIndex {
			lastIndex = ev.Index
			printPosture(out, series, ev.Index)
		}
		if ev.Action != execution.ActionTick || ev.RemainingSeconds%10 == 0 {
			_, _ = fmt.Fprintf(out, "[%s] %s restante\n", ev.State, formatSeconds(ev.RemainingSeconds))
		}
	}
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			show(ev)
		case line, ok := <-lines:
			if !ok {
				lines = nil
				continue
			}
			if line == "q" {
				cancel()
				<-runErr
				snapshot := r.Snapshot().Encode().Encode()
				_, _ = fmt.Fprintf(out, "Sesión en pausa. Para continuar:\n  patientcli run --resume '%s'\n", snapshot)
				return execution.Completion{}, errQuit
			}
			command(r, line, out)
		case err := <-runErr:
			// Run has returned, so events is closed.
			if events != nil {
				for ev := range events {
					show(ev)
				}
			}
			if err != nil {
				return execution.Completion{}, err
			}
			completion, err := r.Completion()
			if err != nil {
				return execution.Completion{}, err
			}
			_, _ = fmt.Fprintf(out, "¡Serie completada! Tiempo efectivo: %d min, pausas: %d\n",
				completion.EffectiveActiveMinutes, completion.PauseCount)
			return completion, nil
		}
	}
}

func command(r *execution.Runner, line string, out io.Writer) {
	var ok bool
	switch line {
	case "p":
		ok = r.Pause() || r.Resume()
	case "n":
		ok = r.Next()
	case "b":
		ok = r.Previous()
	case "r":
		ok = r.Restart()
	case "":
		return
	default:
		_, _ = fmt.Fprintln(out, controlsHelp)
		return
	}
	if !ok {
		_, _ = fmt.Fprintln(out, "(sin efecto)")
	}
}

func printPosture(out io.Writer, series *service.EnrichedSeries, index int) {
	step := series.Sequence[index]
	_, _ = fmt.Fprintf(out, "\n%d/%d %s", index+1, len(series.Sequence), step.DisplayName)
	if step.SanskritName != "" {
		_, _ = fmt.Fprintf(out, " (%s)", step.SanskritName)
	}
	_, _ = fmt.Fprintf(out, " - %d min\n", step.DurationMinutes)
	for _, line := range step.DescriptionLines {
		_, _ = fmt.Fprintf(out, "  · %s\n", line)
	}
}

func formatSeconds(s int) string {
	return fmt.Sprintf("%02d:%02d", s/60, s%60)
}

// askPainAfter prompts until a valid pain level and a non-empty comment are given.
func askPainAfter(lines <-chan string, out io.Writer) (int, string, error) {
	var pain int
	for {
		_, _ = fmt.Fprint(out, "¿Cómo está tu dolor ahora? (0-4): ")
		line, ok := <-lines
		if !ok {
			return 0, "", io.ErrUnexpectedEOF
		}
		n, err := strconv.Atoi(line)
		if err == nil && domain.ValidPainLevel(n) {
			pain = n
			break
		}
	}
	for {
		_, _ = fmt.Fprint(out, "Comentario: ")
		line, ok := <-lines
		if !ok {
			return 0, "", io.ErrUnexpectedEOF
		}
		if line != "" {
			return pain, line, nil
		}
	}
}
