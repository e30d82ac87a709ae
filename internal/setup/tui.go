// Package setup is the interactive first-run wizard.
package setup

import (
	"fmt"
	"os"
	"strings"
	"unicode"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/kjannette/pi-tracker/internal/config"
	"github.com/kjannette/pi-tracker/internal/earnings"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const DefaultFile = "pitracker.gen.yaml"

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(highlight).
			Padding(1, 2).
			Bold(true).
			MarginBottom(1)

	stepStyle = lipgloss.NewStyle().
			Foreground(special).
			Bold(true).
			MarginTop(1)
)

// Answers are the values the wizard collects.
type Answers struct {
	HourlyRate     string
	LocalCurrency  string
	LocalSymbol    string
	CustomCurrency string
	CustomSymbol   string
	HistoryBackend string
	Dashboard      bool
}

func answersFrom(cfg *config.Config) Answers {
	return Answers{
		HourlyRate:     cfg.HourlyRate,
		LocalCurrency:  cfg.LocalCurrency,
		LocalSymbol:    cfg.LocalSymbol,
		CustomCurrency: cfg.CustomCurrency,
		CustomSymbol:   cfg.CustomSymbol,
		HistoryBackend: cfg.HistoryBackend,
		Dashboard:      cfg.DashboardEnabled,
	}
}

// Apply copies the answers onto cfg.
func (a Answers) Apply(cfg *config.Config) {
	cfg.HourlyRate = strings.TrimSpace(a.HourlyRate)
	cfg.LocalCurrency = strings.ToLower(strings.TrimSpace(a.LocalCurrency))
	cfg.LocalSymbol = strings.TrimSpace(a.LocalSymbol)
	cfg.CustomCurrency = strings.ToLower(strings.TrimSpace(a.CustomCurrency))
	cfg.CustomSymbol = strings.TrimSpace(a.CustomSymbol)
	cfg.HistoryBackend = a.HistoryBackend
	cfg.DashboardEnabled = a.Dashboard
}

// RunTUI walks the user through the tracker settings, applies them to cfg and
// saves cfg as YAML to path. It returns the path written.
func RunTUI(cfg *config.Config, path string) (string, error) {
	if path == "" {
		path = DefaultFile
	}
	a := answersFrom(cfg)
	var confirm bool

	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("PI EARNINGS TRACKER SETUP"))
	fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render("Tell the tracker what you mine and how to show it.\n"))

	fmt.Println(stepStyle.Render("STEP 1: EARNINGS"))
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Hourly Pi earnings").
				Description("How much Pi you earn per hour (e.g. 0.25)").
				Value(&a.HourlyRate).
				Validate(ValidateHourlyRate),
		),
	).Run()
	if err != nil {
		return "", err
	}

	fmt.Println(stepStyle.Render("STEP 2: CURRENCIES"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Local currency code").
				Description("CoinGecko vs_currency code (e.g. try)").
				Value(&a.LocalCurrency).
				Validate(ValidateCurrencyCode(true)),
			huh.NewInput().
				Title("Local currency symbol").
				Value(&a.LocalSymbol),
			huh.NewInput().
				Title("Custom currency code").
				Description("Optional second currency (e.g. eur); leave empty to skip").
				Value(&a.CustomCurrency).
				Validate(ValidateCurrencyCode(false)),
			huh.NewInput().
				Title("Custom currency symbol").
				Value(&a.CustomSymbol),
		),
	).Run()
	if err != nil {
		return "", err
	}

	fmt.Println(stepStyle.Render("STEP 3: STORAGE AND DISPLAY"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Price history storage").
				Options(
					huh.NewOption("JSON file", config.BackendJSON),
					huh.NewOption("Write-ahead log", config.BackendWAL),
					huh.NewOption("PostgreSQL", config.BackendPostgres),
				).
				Value(&a.HistoryBackend),
			huh.NewConfirm().
				Title("Show the live terminal dashboard?").
				Value(&a.Dashboard),
		),
	).Run()
	if err != nil {
		return "", err
	}

	fmt.Println(lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(1).Render(a.Summary()))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Save configuration?").
				Affirmative("Yes, save and start").
				Negative("No, exit").
				Value(&confirm),
		),
	).Run()
	if err != nil {
		return "", err
	}
	if !confirm {
		return "", errors.New("setup cancelled by user")
	}

	a.Apply(cfg)
	if err := Save(cfg, path); err != nil {
		return "", err
	}
	fmt.Println(lipgloss.NewStyle().Foreground(special).Render(fmt.Sprintf("\n✓ Configuration saved to %s", path)))
	return path, nil
}

func (a Answers) Summary() string {
	custom := "not set"
	if strings.TrimSpace(a.CustomCurrency) != "" {
		custom = strings.ToUpper(strings.TrimSpace(a.CustomCurrency)) + " " + strings.TrimSpace(a.CustomSymbol)
	}
	return fmt.Sprintf(
		"Hourly rate: %s Pi\nLocal: %s %s\nCustom: %s\nHistory: %s\nDashboard: %v\n",
		strings.TrimSpace(a.HourlyRate),
		strings.ToUpper(strings.TrimSpace(a.LocalCurrency)), strings.TrimSpace(a.LocalSymbol),
		custom, a.HistoryBackend, a.Dashboard,
	)
}

// Save writes cfg as YAML. Secrets are never written.
func Save(cfg *config.Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "generate yaml")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "save config file %s", path)
	}
	return nil
}

func ValidateHourlyRate(s string) error {
	_, err := earnings.ParseHourlyRate(s)
	return err
}

// ValidateCurrencyCode accepts 2 to 10 ASCII letters. An empty code passes
// unless required.
func ValidateCurrencyCode(required bool) func(string) error {
	return func(s string) error {
		s = strings.TrimSpace(s)
		if s == "" {
			if required {
				return errors.New("currency code cannot be empty")
			}
			return nil
		}
		if len(s) < 2 || len(s) > 10 {
			return errors.New("currency code must be 2 to 10 letters")
		}
		for _, r := range s {
			if r > unicode.MaxASCII || !unicode.IsLetter(r) {
				return errors.Errorf("invalid character %q in currency code", r)
			}
		}
		return nil
	}
}
