// Package app 把命令行选项、配置文件与环境变量装配成一个 cobra 命令。
//
// 配置优先级从高到低：命令行参数、{NAME}_ 前缀的环境变量、配置文件、默认值。
package app

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/kart-io/version"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	options "github.com/kart-io/rag-assistant/pkg/app"
	"github.com/kart-io/rag-assistant/pkg/app/cliflag"
)

// App 是一个可执行的服务命令。
type App struct {
	name        string
	shortDesc   string
	description string
	options     options.CliOptions
	runFunc     RunFunc
	noVersion   bool
	cmd         *cobra.Command
}

// RunFunc 在选项补全并校验通过后执行。
type RunFunc func() error

// Option configures an App.
type Option func(*App)

// WithName 设置命令名，同时决定环境变量前缀与默认配置文件名。
func WithName(name string) Option {
	return func(a *App) { a.name = name }
}

// WithShortDescription sets the short description.
func WithShortDescription(desc string) Option {
	return func(a *App) { a.shortDesc = desc }
}

// WithDescription sets the long description.
func WithDescription(desc string) Option {
	return func(a *App) { a.description = desc }
}

// WithOptions sets the CLI options.
func WithOptions(opts options.CliOptions) Option {
	return func(a *App) { a.options = opts }
}

// WithRunFunc sets the run function.
func WithRunFunc(run RunFunc) Option {
	return func(a *App) { a.runFunc = run }
}

// WithNoVersion 不注册 --version。
func WithNoVersion() Option {
	return func(a *App) { a.noVersion = true }
}

// NewApp creates a new application instance.
func NewApp(opts ...Option) *App {
	a := &App{name: filepath.Base(os.Args[0])}
	for _, opt := range opts {
		opt(a)
	}
	a.cmd = a.newCommand()
	return a
}

func (a *App) newCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          a.name,
		Short:        a.shortDesc,
		Long:         a.description,
		Args:         cobra.NoArgs,
		RunE:         a.run,
		SilenceUsage: true,
	}
	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)
	cmd.Flags().SortFlags = true

	pfs := cmd.PersistentFlags()
	pfs.StringP("config", "c", "", "Path to config file (default ./configs/"+a.name+".yaml when present).")
	if !a.noVersion {
		version.AddFlags(pfs)
	}
	pfs.BoolP("help", "h", false, "Help for "+a.name)

	if a.options == nil {
		return cmd
	}
	fss := a.options.Flags()
	for _, name := range fss.Order {
		cmd.Flags().AddFlagSet(fss.FlagSets[name])
	}
	cmd.SetUsageFunc(func(c *cobra.Command) error {
		fmt.Fprintf(c.OutOrStderr(), "Usage:\n  %s\n", c.UseLine())
		fmt.Fprintf(c.OutOrStderr(), "\nGlobal flags:\n\n%s", c.PersistentFlags().FlagUsages())
		cliflag.PrintSections(c.OutOrStderr(), fss, 0)
		return nil
	})
	return cmd
}

func (a *App) run(cmd *cobra.Command, _ []string) error {
	if !a.noVersion {
		version.PrintAndExitIfRequested()
	}

	if a.options != nil {
		if err := a.loadOptions(cmd.Flags()); err != nil {
			return err
		}
		if err := a.options.Complete(); err != nil {
			return err
		}
		if err := a.options.Validate(); err != nil {
			return err
		}
	}

	if a.runFunc == nil {
		return nil
	}
	return a.runFunc()
}

// loadOptions 按优先级把配置合并进选项结构体。
// 只有显式传入的参数绑定到 viper，未传入的参数不覆盖配置文件。
func (a *App) loadOptions(fs *pflag.FlagSet) error {
	v := viper.New()

	path, _ := fs.GetString("config")
	if path == "" {
		path = a.defaultConfigFile()
	}
	if path != "" {
		if err := readConfig(v, path); err != nil {
			return err
		}
	}

	v.SetEnvPrefix(strings.ToUpper(strings.ReplaceAll(a.name, "-", "_")))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	var bindErr error
	fs.VisitAll(func(f *pflag.Flag) {
		if bindErr != nil || f.Name == "config" {
			return
		}
		// 配置文件里没有的键也能从环境变量读取
		if err := v.BindEnv(f.Name); err != nil {
			bindErr = err
			return
		}
		if f.Changed {
			bindErr = v.BindPFlag(f.Name, f)
		}
	})
	if bindErr != nil {
		return fmt.Errorf("failed to bind flags: %w", bindErr)
	}

	if err := v.Unmarshal(a.options); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return nil
}

// defaultConfigFile 返回存在的默认配置文件，找不到时返回空串。
func (a *App) defaultConfigFile() string {
	candidates := []string{
		filepath.Join("configs", a.name+".yaml"),
		a.name + ".yaml",
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}

func readConfig(v *viper.Viper, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	typ := strings.TrimPrefix(filepath.Ext(path), ".")
	if typ == "" || typ == "yml" {
		typ = "yaml"
	}
	v.SetConfigType(typ)
	if err := v.ReadConfig(strings.NewReader(expandEnv(string(raw)))); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// expandEnv 替换配置文本中的 ${VAR} 与 $VAR，未设置的变量保持原样。
func expandEnv(s string) string {
	return envRef.ReplaceAllStringFunc(s, func(ref string) string {
		m := envRef.FindStringSubmatch(ref)
		name := m[1]
		if name == "" {
			name = m[2]
		}
		if val, ok := os.LookupEnv(name); ok {
			return val
		}
		return ref
	})
}

// Run executes the application and exits non-zero on failure.
func (a *App) Run() {
	if err := a.cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Command returns the cobra command.
func (a *App) Command() *cobra.Command {
	return a.cmd
}
