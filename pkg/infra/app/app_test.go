package app

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/rag-assistant/pkg/app/cliflag"
)

type testOptions struct {
	Addr     string  `mapstructure:"addr"`
	TopK     int     `mapstructure:"top-k"`
	Ratio    float64 `mapstructure:"ratio"`
	Token    string  `mapstructure:"token"`
	invalid  bool
	complete bool
}

func (o *testOptions) Flags() (fss cliflag.NamedFlagSets) {
	fs := fss.FlagSet("test")
	fs.StringVar(&o.Addr, "addr", o.Addr, "listen address")
	fs.IntVar(&o.TopK, "top-k", o.TopK, "top k")
	fs.Float64Var(&o.Ratio, "ratio", o.Ratio, "ratio")
	fs.StringVar(&o.Token, "token", o.Token, "token")
	return fss
}

func (o *testOptions) Complete() error {
	o.complete = true
	return nil
}

func (o *testOptions) Validate() error {
	if o.invalid {
		return errors.New("invalid")
	}
	return nil
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "assistant.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestConfigPrecedence(t *testing.T) {
	t.Setenv("ASSISTANT_RATIO", "0.25")
	t.Setenv("TEST_TOKEN", "secret")

	cfg := writeConfig(t, "addr: \":9000\"\ntop-k: 5\nratio: 0.5\ntoken: ${TEST_TOKEN}\n")
	opts := &testOptions{Addr: ":8080", TopK: 10}

	var ran bool
	a := NewApp(
		WithName("assistant"),
		WithNoVersion(),
		WithOptions(opts),
		WithRunFunc(func() error {
			ran = true
			return nil
		}),
	)
	a.Command().SetArgs([]string{"--config", cfg, "--top-k", "7"})
	require.NoError(t, a.Command().Execute())

	assert.True(t, ran)
	assert.True(t, opts.complete)
	assert.Equal(t, ":9000", opts.Addr, "配置文件覆盖默认值")
	assert.Equal(t, 7, opts.TopK, "命令行参数优先于配置文件")
	assert.Equal(t, 0.25, opts.Ratio, "环境变量生效")
	assert.Equal(t, "secret", opts.Token, "展开配置中的环境变量")
}

func TestEnvWithoutConfigFile(t *testing.T) {
	t.Setenv("ASSISTANT_ADDR", ":7000")
	opts := &testOptions{Addr: ":8080", TopK: 10}

	a := NewApp(WithName("assistant"), WithNoVersion(), WithOptions(opts))
	a.Command().SetArgs([]string{})
	require.NoError(t, a.Command().Execute())

	assert.Equal(t, ":7000", opts.Addr, "配置文件中没有的键也读取环境变量")
	assert.Equal(t, 10, opts.TopK)
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("TEST_HOST", "db.local")
	assert.Equal(t, "host: db.local:5432", expandEnv("host: ${TEST_HOST}:5432"))
	assert.Equal(t, "host: db.local", expandEnv("host: $TEST_HOST"))
	assert.Equal(t, "key: ${TEST_UNSET_KEY}", expandEnv("key: ${TEST_UNSET_KEY}"), "未设置的变量保持原样")
	assert.Equal(t, "price: 5$", expandEnv("price: 5$"))
}

func TestValidateFailureStopsRun(t *testing.T) {
	opts := &testOptions{invalid: true}

	var ran bool
	a := NewApp(
		WithName("assistant"),
		WithNoVersion(),
		WithOptions(opts),
		WithRunFunc(func() error {
			ran = true
			return nil
		}),
	)
	a.Command().SilenceErrors = true
	a.Command().SetArgs([]string{})
	assert.Error(t, a.Command().Execute())
	assert.True(t, opts.complete)
	assert.False(t, ran)
}
