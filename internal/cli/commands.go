package cli

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"ocr-translator/internal/config"
	"ocr-translator/internal/ocr"
	"ocr-translator/internal/pdf"
	"ocr-translator/internal/types"
)

// Flag groups shared by several commands.

func addRasterFlags(fs *pflag.FlagSet) {
	fs.StringP("pages", "p", "", "page range such as \"1-5\" or \"3\" (default all pages)")
	fs.Int("dpi", config.DefaultDPI, "rasterization resolution")
}

func addOCRFlags(fs *pflag.FlagSet) {
	fs.String("lang", config.DefaultOCRLanguage, "OCR language, e.g. en, ch, japan, or eng+chi_sim")
	fs.String("tessdata", "", "tessdata directory")
	fs.Float64("line-threshold", config.DefaultLineThreshold, "vertical pixel distance for blocks on the same line")
}

func addTranslateFlags(fs *pflag.FlagSet) {
	fs.String("provider", config.DefaultProvider, "translation provider: eino, openai or anthropic")
	fs.String("api-key", "", "API key for the selected provider")
	fs.String("base-url", "", "API base URL of the selected provider")
	fs.String("model", "", "model name (default "+config.DefaultModel+")")
	fs.String("source-lang", config.DefaultSourceLanguage, "source language")
	fs.String("target-lang", config.DefaultTargetLanguage, "target language")
	fs.Int("budget", config.DefaultCharacterBudget, "maximum characters per translation request")
	fs.Bool("no-cache", false, "do not read or write the translation cache")
}

func addRenderFlags(fs *pflag.FlagSet) {
	fs.StringP("format", "f", config.DefaultLayout, "layout: dual, interleaved or translation")
	fs.StringP("title", "t", "", "document title")
	fs.String("font", "", "TrueType font used for PDF output")
}

// applyFlagOverrides copies explicitly set flags over the loaded configuration.
func applyFlagOverrides(cmd *cobra.Command, cfg *types.Config) error {
	fs := cmd.Flags()
	str := func(name string, dst *string) {
		if fs.Changed(name) {
			*dst, _ = fs.GetString(name)
		}
	}

	if fs.Changed("dpi") {
		cfg.DPI, _ = fs.GetInt("dpi")
	}
	str("lang", &cfg.OCRLanguage)
	str("tessdata", &cfg.TessdataPrefix)
	if fs.Changed("line-threshold") {
		cfg.LineThreshold, _ = fs.GetFloat64("line-threshold")
	}

	str("provider", &cfg.Provider)
	cfg.Provider = strings.ToLower(cfg.Provider)
	anthropic := cfg.Provider == "anthropic"
	if fs.Changed("api-key") {
		key, _ := fs.GetString("api-key")
		if anthropic {
			cfg.AnthropicAPIKey = key
		} else {
			cfg.OpenAIAPIKey = key
		}
	}
	if anthropic {
		str("base-url", &cfg.AnthropicBaseURL)
	} else {
		str("base-url", &cfg.OpenAIBaseURL)
	}
	if fs.Changed("model") {
		model, _ := fs.GetString("model")
		if anthropic {
			cfg.AnthropicModel = model
		} else {
			cfg.OpenAIModel = model
		}
	}
	str("source-lang", &cfg.SourceLanguage)
	str("target-lang", &cfg.TargetLanguage)
	if fs.Changed("budget") {
		cfg.CharacterBudget, _ = fs.GetInt("budget")
	}
	if fs.Changed("no-cache") {
		cfg.DisableCache, _ = fs.GetBool("no-cache")
	}

	str("format", &cfg.Layout)
	str("title", &cfg.Title)
	str("font", &cfg.FontPath)

	return config.Validate(*cfg)
}

func pageRangeFlag(cmd *cobra.Command) (pdf.PageRange, error) {
	s, _ := cmd.Flags().GetString("pages")
	return pdf.ParsePageRange(s)
}

func (a *app) newExtractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "extract-images <input.pdf>",
		Aliases: []string{"extract"},
		Short:   "Rasterize PDF pages into the work directory",
		Args:    exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pageRange, err := pageRangeFlag(cmd)
			if err != nil {
				return err
			}
			p, err := a.pipeline()
			if err != nil {
				return err
			}
			images, err := p.ExtractImages(cmd.Context(), args[0], pageRange)
			if err != nil {
				return err
			}
			a.ui.success("extracted %d page image(s) to %s", len(images), p.Store().ImagesDir())
			return nil
		},
	}
	addRasterFlags(cmd.Flags())
	return cmd
}

func (a *app) newRecognizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "recognize-text",
		Aliases: []string{"ocr"},
		Short:   "Run OCR over the extracted page images",
		Args:    exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := ocr.TesseractLanguages(a.cfg.OCRLanguage); err != nil {
				return types.NewAppError(types.ErrConfig, "unsupported OCR language", err)
			}
			p, err := a.pipeline()
			if err != nil {
				return err
			}
			records, err := p.RecognizeText(cmd.Context())
			if err != nil {
				return err
			}
			blocks := 0
			for _, r := range records {
				blocks += r.TextBlockCount
			}
			a.ui.success("recognized %d text block(s) on %d page(s) (%s)",
				blocks, len(records), ocr.LanguageName(a.cfg.OCRLanguage))
			return nil
		},
	}
	addOCRFlags(cmd.Flags())
	return cmd
}

func (a *app) newTranslateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "translate",
		Short: "Translate the recognized text of all pages",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.ValidateForTranslation(a.cfg); err != nil {
				return err
			}
			p, err := a.pipeline()
			if err != nil {
				return err
			}
			records, err := p.Translate(cmd.Context())
			if err != nil {
				return err
			}
			a.ui.success("translated %d page(s) into %s", len(records), a.cfg.TargetLanguage)
			return nil
		},
	}
	addTranslateFlags(cmd.Flags())
	return cmd
}

func (a *app) newRenderCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:     "render-document",
		Aliases: []string{"generate"},
		Short:   "Write the bilingual PDF or Word document",
		Args:    exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if output == "" {
				return &usageError{err: fmt.Errorf("--output is required")}
			}
			p, err := a.pipeline()
			if err != nil {
				return err
			}
			if err := p.RenderDocument(cmd.Context(), output, a.cfg.Title); err != nil {
				return err
			}
			a.ui.success("wrote %s", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (.pdf, .docx or .doc)")
	addRenderFlags(cmd.Flags())
	return cmd
}

func (a *app) newRunAllCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "run-all <input.pdf> <output>",
		Aliases: []string{"all"},
		Short:   "Run every stage from scanned PDF to bilingual document",
		Args:    exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pageRange, err := pageRangeFlag(cmd)
			if err != nil {
				return err
			}
			// fail on missing credentials before any page is rasterized
			if err := config.ValidateForTranslation(a.cfg); err != nil {
				return err
			}
			if _, err := ocr.TesseractLanguages(a.cfg.OCRLanguage); err != nil {
				return types.NewAppError(types.ErrConfig, "unsupported OCR language", err)
			}
			p, err := a.pipeline()
			if err != nil {
				return err
			}
			if err := p.RunAll(cmd.Context(), args[0], pageRange, args[1], a.cfg.Title); err != nil {
				return err
			}
			a.ui.success("wrote %s", args[1])
			return nil
		},
	}
	addRasterFlags(cmd.Flags())
	addOCRFlags(cmd.Flags())
	addTranslateFlags(cmd.Flags())
	addRenderFlags(cmd.Flags())
	return cmd
}

func (a *app) newInspectCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "inspect <input.pdf>",
		Short: "Report page count and whether the PDF already has a text layer",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := pdf.Inspect(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			}
			fmt.Fprintf(out, "File:       %s\n", filepath.Base(info.FilePath))
			fmt.Fprintf(out, "Pages:      %d\n", info.PageCount)
			fmt.Fprintf(out, "Size:       %d bytes\n", info.FileSize)
			fmt.Fprintf(out, "Text layer: %t\n", info.IsTextPDF)
			if info.IsTextPDF {
				fmt.Fprintln(out, "This PDF already contains text; OCR may not be needed.")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func (a *app) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Args:  exactArgs(0),
		// no configuration needed
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("ocr-translator version %s\n", version)
		},
	}
}
