package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"ocr-translator/internal/artifacts"
	"ocr-translator/internal/pipeline"
)

var stageTitles = map[artifacts.Stage]string{
	artifacts.StageExtract:   "Extracting pages",
	artifacts.StageRecognize: "Recognizing text",
	artifacts.StageTranslate: "Translating",
	artifacts.StageRender:    "Rendering",
}

// progressUI turns pipeline status updates into a spinner while a stage has
// no known total and a progress bar once it does.
type progressUI struct {
	w       io.Writer
	quiet   bool
	stage   artifacts.Stage
	bar     *progressbar.ProgressBar
	spinner *spinner.Spinner
}

func newProgressUI(w io.Writer, quiet bool) *progressUI {
	return &progressUI{w: w, quiet: quiet}
}

// Update implements pipeline.StatusCallback.
func (u *progressUI) Update(s pipeline.Status) {
	if u.quiet {
		return
	}
	if s.Stage != u.stage {
		u.finish()
		u.stage = s.Stage
	}

	if s.Total <= 0 {
		if u.bar != nil {
			return
		}
		msg := stageTitles[s.Stage]
		if s.Message != "" {
			msg += ": " + s.Message
		}
		if u.spinner == nil {
			u.spinner = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(u.w))
			u.spinner.Suffix = " " + msg
			u.spinner.Start()
		} else {
			u.spinner.Suffix = " " + msg
		}
		return
	}

	if u.spinner != nil {
		u.spinner.Stop()
		u.spinner = nil
	}
	if u.bar == nil {
		u.bar = progressbar.NewOptions(s.Total,
			progressbar.OptionSetWriter(u.w),
			progressbar.OptionSetDescription(stageTitles[s.Stage]),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(40),
			progressbar.OptionSetRenderBlankState(true),
			progressbar.OptionOnCompletion(func() { fmt.Fprintln(u.w) }),
		)
	} else if u.bar.GetMax() != s.Total {
		u.bar.ChangeMax(s.Total)
	}
	_ = u.bar.Set(s.Done)
}

func (u *progressUI) finish() {
	if u.spinner != nil {
		u.spinner.Stop()
		u.spinner = nil
	}
	if u.bar != nil {
		_ = u.bar.Finish()
		u.bar = nil
	}
}

// Close stops any running indicator.
func (u *progressUI) Close() {
	u.finish()
}

func (u *progressUI) success(format string, args ...any) {
	if u.quiet {
		return
	}
	u.finish()
	fmt.Fprintf(u.w, "%s %s\n", color.GreenString("✓"), fmt.Sprintf(format, args...))
}
