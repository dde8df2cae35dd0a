package servecmder

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/meterlab/graphsight/pkg/config"
	"github.com/meterlab/graphsight/pkg/logger"
	"github.com/meterlab/graphsight/proxy"
)

const serveLongDesc string = `Run the vision compatibility proxy.

The proxy accepts OpenAI-style chat completion requests and additionally
understands the legacy image fields "images" (per message) and "allImages"
(whole conversation), rewriting them into standard multimodal content
parts before forwarding to the upstream model server. Responses come back
verbatim, streaming included.

Examples:
  graphsight serve
  graphsight serve --listen :7860 --upstream http://localhost:1234
  LMSTUDIO_API_KEY=sk-local graphsight serve`

const serveShortDesc string = "Run the vision compatibility proxy"

type serveCommander struct {
	configPath string
	listen     string
	upstream   string
	debug      bool
}

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd)
		},
	}

	cmd.Flags().StringVarP(&cmder.configPath, "config", "c", "", "Path to TOML config file")
	cmd.Flags().StringVarP(&cmder.listen, "listen", "l", "", "Address to listen on (overrides config)")
	cmd.Flags().StringVarP(&cmder.upstream, "upstream", "u", "", "Upstream model server URL (overrides config)")
	cmd.Flags().BoolVar(&cmder.debug, "debug", false, "Enable debug logging")

	return cmd
}

func (c *serveCommander) run(cmd *cobra.Command) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if c.listen != "" {
		cfg.ListenAddr = c.listen
	}
	if c.upstream != "" {
		cfg.BaseURL = c.upstream
	}

	log := logger.New(c.debug)
	defer log.Sync()

	log.Info("graphsight proxy starting",
		zap.String("listen", cfg.ListenAddr),
		zap.String("upstream", cfg.BaseURL),
		zap.String("model", cfg.Model),
	)

	p := proxy.New(proxy.Config{
		ListenAddr:  cfg.ListenAddr,
		UpstreamURL: cfg.BaseURL,
		Model:       cfg.Model,
		APIKey:      cfg.APIKey,
		Timeout:     cfg.Timeout(),
	}, log)
	defer p.Close()

	return p.Run()
}
