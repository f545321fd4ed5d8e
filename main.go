package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"murmur/audio"
	"murmur/beep"
	"murmur/config"
	"murmur/encoder"
	"murmur/feedback"
	"murmur/hotkey"
	"murmur/inject"
	"murmur/log"
	"murmur/pipeline"
	"murmur/postproc"
	"murmur/transcriber"
)

var version = "dev"

// doneCounter tracks completed transcriptions for the session summary.
type doneCounter struct {
	n atomic.Int64
}

func (d *doneCounter) RecordingStarted()                {}
func (d *doneCounter) RecordingStopped()                {}
func (d *doneCounter) NoSpeechDetected()                {}
func (d *doneCounter) TranscribingStarted()             {}
func (d *doneCounter) Warning(string)                   {}
func (d *doneCounter) Error(feedback.ErrorKind, string) {}
func (d *doneCounter) Done(string)                      { d.n.Add(1) }
func (d *doneCounter) Level(float64)                    {}
func (d *doneCounter) Tick(float64)                     {}

func main() {
	configFlag := flag.String("config", "", "Config file path (default: OS-specific location)")
	setupFlag := flag.Bool("setup", false, "Select microphone device (otherwise uses system default)")
	deviceFlag := flag.String("device", "", "Use named microphone device")
	langFlag := flag.String("lang", "", "Language code for transcription (e.g., en, es, fr). Empty = auto-detect")
	instructionFlag := flag.String("instruction", "", "LLM rewrite instruction applied to each transcript")
	hotkeyFlag := flag.String("hotkey", "", "Push-to-talk key combo (e.g., ctrl+shift+space)")
	formatFlag := flag.String("format", "", "Audio upload format: flac or wav")
	providerFlag := flag.String("provider", "", "Transcription provider: groq or openai")
	logPathFlag := flag.String("logpath", "", "log directory path (default: OS-specific location, use ./ for current dir)")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	tuiFlag := flag.Bool("tui", true, "Run with terminal UI")
	soundFlag := flag.Bool("sound", true, "Play audible cues on recording edges")
	flag.Parse()

	if *versionFlag {
		fmt.Printf("murmur %s\n", version)
		os.Exit(0)
	}

	cfg, err := config.Load(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *langFlag != "" {
		cfg.Language = *langFlag
	}
	if *instructionFlag != "" {
		cfg.Instruction = *instructionFlag
	}
	if *hotkeyFlag != "" {
		cfg.Hotkey = *hotkeyFlag
	}
	if *formatFlag != "" {
		cfg.Format = *formatFlag
	}
	if *providerFlag != "" {
		cfg.Provider = *providerFlag
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	combo, err := hotkey.ParseCombo(cfg.Hotkey)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logPath, err := log.ResolveDir(*logPathFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve log directory: %v\n", err)
		os.Exit(1)
	}
	log.SetDir(logPath)
	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}
	defer log.Close()

	tr, err := transcriber.NewNamed(cfg.Provider)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	rewriter := postproc.New()
	if cfg.Instruction != "" && rewriter == nil {
		fmt.Fprintln(os.Stderr, "Warning: instruction set but no API key for rewriting; transcripts delivered raw")
	}

	audioCtx, err := audio.NewContext()
	if err != nil {
		log.Errorf("audio context init error: %v", err)
		fmt.Fprintf(os.Stderr, "Error initializing audio context: %v\n", err)
		os.Exit(1)
	}
	defer audioCtx.Close()

	var selectedDevice *audio.DeviceInfo
	if *deviceFlag != "" {
		if devices, err := audioCtx.Devices(); err == nil {
			for i := range devices {
				if devices[i].Name == *deviceFlag {
					selectedDevice = &devices[i]
					break
				}
			}
		}
		if selectedDevice == nil {
			fmt.Fprintf(os.Stderr, "Warning: device %q not found, using system default\n", *deviceFlag)
		}
	} else if *setupFlag {
		selectedDevice, err = audio.SelectDevice(audioCtx)
		if err != nil {
			log.Warnf("device selection failed: %v", err)
			fmt.Fprintf(os.Stderr, "Warning: device selection failed: %v\n", err)
			selectedDevice = nil
		}
	}

	capture, err := audioCtx.NewCapture(selectedDevice, audio.CaptureConfig{
		SampleRate: encoder.SampleRate,
		Channels:   encoder.Channels,
	})
	if err != nil {
		log.Errorf("capture device init error: %v", err)
		fmt.Fprintf(os.Stderr, "Error initializing capture device: %v\n", err)
		os.Exit(1)
	}
	defer capture.Close()
	rec := audio.NewRecorder(capture, encoder.SampleRate)

	counter := &doneCounter{}
	sinks := feedback.Multi{counter}
	if *soundFlag {
		sinks = append(sinks, beep.NewSink())
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var program *tea.Program
	if *tuiFlag {
		program = NewTUIProgram(combo.String())
		sinks = append(sinks, tuiSink{p: program})
		go func() {
			if _, err := program.Run(); err != nil {
				log.Errorf("TUI error: %v", err)
			}
			cancel()
		}()
		program.Send(ModeLineMsg{Text: modeLineText(tr.Name(), cfg)})
		program.Send(DeviceLineMsg{Text: deviceLineText(capture.DeviceName())})
	}

	controller := pipeline.New(rec, tr, rewriter, inject.NewClipboard(), sinks, pipeline.Config{
		Language:      cfg.Language,
		Instruction:   cfg.Instruction,
		Format:        cfg.Format,
		TrimThreshold: cfg.Trim.Threshold,
		MinSilence:    cfg.MinSilence(),
	})

	watcher := hotkey.New(combo)
	if err := watcher.Register(); err != nil {
		log.Errorf("hotkey register error: %v", err)
		fmt.Fprintf(os.Stderr, "Error registering hotkey: %v\n", err)
		os.Exit(1)
	}
	defer watcher.Unregister()

	// Apply config file edits without a restart.
	watchPath := *configFlag
	if watchPath == "" {
		watchPath, _ = config.DefaultPath()
	}
	if watchPath != "" {
		go config.Watch(ctx, watchPath, func(newCfg *config.Config) {
			controller.UpdateConfig(pipeline.Config{
				Language:      newCfg.Language,
				Instruction:   newCfg.Instruction,
				Format:        newCfg.Format,
				TrimThreshold: newCfg.Trim.Threshold,
				MinSilence:    newCfg.MinSilence(),
			})
			if newCfg.Hotkey != cfg.Hotkey {
				if newCombo, err := hotkey.ParseCombo(newCfg.Hotkey); err == nil {
					if err := watcher.Rebind(newCombo); err != nil {
						log.Warnf("hotkey rebind failed: %v", err)
					} else if program != nil {
						program.Send(ModeLineMsg{Text: modeLineText(tr.Name(), newCfg)})
					}
				}
			}
			cfg = newCfg
			log.Info("config reloaded")
		})
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	log.SessionStart(tr.Name(), cfg.Format, cfg.Hotkey)
	if !*tuiFlag {
		fmt.Printf("murmur %s ready: hold %s to dictate\n", version, combo.String())
	}

	controller.Run(ctx, watcher.Events())

	if n := int(counter.n.Load()); n > 0 {
		log.SessionEnd(n)
	}
	if program != nil {
		program.Quit()
	}
}

func modeLineText(provider string, cfg *config.Config) string {
	label := provider
	if cfg.Language != "" {
		label += " (" + cfg.Language + ")"
	}
	if cfg.Instruction != "" {
		label += " +rewrite"
	}
	return fmt.Sprintf("[%s | %s]", cfg.Format, label)
}

func deviceLineText(name string) string {
	suffix := ""
	if audio.IsBluetooth(name) {
		suffix = " (BT!)"
	}
	return "mic: " + name + suffix
}
