package schedule

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf16"

	"github.com/genricoloni/visuals/internal/domain"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	taskName    = "Visuals Auto Change"
	wrapperName = "visuals_auto_change.vbs"
)

// SchtasksBackend registers a Task Scheduler task that launches the
// auto-change command through a hidden VBScript wrapper
type SchtasksBackend struct {
	logger     *zap.Logger
	runner     domain.CommandRunner
	wrapperDir string
	tempDir    string
	now        func() time.Time
}

// NewSchtasksBackend keeps the wrapper script in wrapperDir
func NewSchtasksBackend(logger *zap.Logger, runner domain.CommandRunner, wrapperDir string) *SchtasksBackend {
	return &SchtasksBackend{
		logger:     logger,
		runner:     runner,
		wrapperDir: wrapperDir,
		tempDir:    os.TempDir(),
		now:        time.Now,
	}
}

func (b *SchtasksBackend) Name() string { return "schtasks" }

func (b *SchtasksBackend) wrapperPath() string {
	return filepath.Join(b.wrapperDir, wrapperName)
}

// Register writes the wrapper and creates the task from XML. The wrapper
// is removed when task creation fails.
func (b *SchtasksBackend) Register(ctx context.Context, f domain.Frequency, exe string) error {
	if err := os.MkdirAll(b.wrapperDir, 0755); err != nil {
		return domain.FilesystemError("create wrapper directory", err)
	}
	if err := os.WriteFile(b.wrapperPath(), []byte(wrapperScript(exe)), 0644); err != nil {
		return domain.FilesystemError("write wrapper", err)
	}

	xmlPath := filepath.Join(b.tempDir, "visuals_task.xml")
	if err := os.WriteFile(xmlPath, encodeUTF16(taskXML(f, b.wrapperPath(), b.now())), 0644); err != nil {
		b.removeWrapper()
		return domain.FilesystemError("write task definition", err)
	}
	defer os.Remove(xmlPath)

	if _, err := b.runner.Run(ctx, "schtasks", "/Create", "/TN", taskName, "/XML", xmlPath, "/F"); err != nil {
		b.removeWrapper()
		return err
	}
	return nil
}

// Unregister deletes the task and the wrapper
func (b *SchtasksBackend) Unregister(ctx context.Context) error {
	errs := b.removeWrapper()
	if _, err := b.runner.Run(ctx, "schtasks", "/Delete", "/TN", taskName, "/F"); err != nil && !taskMissing(err) {
		errs = multierr.Append(errs, err)
	}
	return errs
}

// Query reads the task's verbose listing
func (b *SchtasksBackend) Query(ctx context.Context) (Registration, error) {
	out, err := b.runner.Run(ctx, "schtasks", "/Query", "/TN", taskName, "/FO", "LIST", "/V")
	if err != nil {
		return Registration{}, nil
	}

	reg := Registration{Registered: true}
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := scanner.Text()
		if v, ok := strings.CutPrefix(line, "Next Run Time:"); ok {
			if t, err := time.ParseInLocation("1/2/2006 3:04:05 PM", strings.TrimSpace(v), time.Local); err == nil {
				reg.NextRun = t
			}
		}
	}
	return reg, nil
}

func (b *SchtasksBackend) removeWrapper() error {
	if err := os.Remove(b.wrapperPath()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return domain.FilesystemError("remove wrapper", err)
	}
	return nil
}

func taskMissing(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "does not exist") || strings.Contains(msg, "cannot find")
}

// wrapperScript runs the command with a hidden window
func wrapperScript(exe string) string {
	return fmt.Sprintf("Set objShell = CreateObject(\"WScript.Shell\")\r\nobjShell.Run \"\"\"%s\"\" %s\", 0, False\r\n",
		exe, AutoChangeCommand)
}

// encodeUTF16 renders s as little-endian UTF-16 with a byte order mark
func encodeUTF16(s string) []byte {
	units := utf16.Encode([]rune(s))
	buf := make([]byte, 2+2*len(units))
	binary.LittleEndian.PutUint16(buf, 0xFEFF)
	for i, u := range units {
		binary.LittleEndian.PutUint16(buf[2+2*i:], u)
	}
	return buf
}

func taskXML(f domain.Frequency, wrapper string, now time.Time) string {
	var trigger string
	if f.Daily() {
		t := f.TimeOfDay()
		start := time.Date(now.Year(), now.Month(), now.Day(), t.Hour, t.Minute, 0, 0, time.Local)
		trigger = fmt.Sprintf(`
    <CalendarTrigger>
      <StartBoundary>%s</StartBoundary>
      <Enabled>true</Enabled>
      <ScheduleByDay>
        <DaysInterval>1</DaysInterval>
      </ScheduleByDay>
    </CalendarTrigger>`, start.Format("2006-01-02T15:04:05"))
	} else {
		start := now.Truncate(time.Hour).Add(time.Hour)
		trigger = fmt.Sprintf(`
    <TimeTrigger>
      <StartBoundary>%s</StartBoundary>
      <Enabled>true</Enabled>
      <Repetition>
        <Interval>PT%dH</Interval>
        <StopAtDurationEnd>false</StopAtDurationEnd>
      </Repetition>
    </TimeTrigger>`, start.Format("2006-01-02T15:04:05"), f.Hours)
	}

	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-16"?>
<Task version="1.2" xmlns="http://schemas.microsoft.com/windows/2004/02/mit/task">
  <RegistrationInfo>
    <Description>Visuals wallpaper auto-change (%s)</Description>
  </RegistrationInfo>
  <Triggers>%s
  </Triggers>
  <Principals>
    <Principal id="Author">
      <LogonType>InteractiveToken</LogonType>
      <RunLevel>LeastPrivilege</RunLevel>
    </Principal>
  </Principals>
  <Settings>
    <MultipleInstancesPolicy>IgnoreNew</MultipleInstancesPolicy>
    <DisallowStartIfOnBatteries>false</DisallowStartIfOnBatteries>
    <StopIfGoingOnBatteries>false</StopIfGoingOnBatteries>
    <StartWhenAvailable>true</StartWhenAvailable>
    <AllowStartOnDemand>true</AllowStartOnDemand>
    <Enabled>true</Enabled>
    <ExecutionTimeLimit>PT10M</ExecutionTimeLimit>
  </Settings>
  <Actions Context="Author">
    <Exec>
      <Command>wscript.exe</Command>
      <Arguments>"%s" //B //Nologo</Arguments>
    </Exec>
  </Actions>
</Task>
`, f.Describe(), trigger, wrapper)
}
