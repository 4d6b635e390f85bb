package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/asynczeroconf/go-zeroconf"
)

type Config struct {
	Mode      string            `koanf:"mode"`
	Type      string            `koanf:"type"`
	Name      string            `koanf:"name"`
	Domain    string            `koanf:"domain"`
	Port      uint16            `koanf:"port"`
	Interface string            `koanf:"interface"`
	Timeout   time.Duration     `koanf:"timeout"`
	Resolve   bool              `koanf:"resolve"`
	TXT       map[string]string `koanf:"txt"`
	LogLevel  string            `koanf:"log_level"`
}

func loadConfig() (*Config, error) {
	flags := pflag.NewFlagSet("zeroconf", pflag.ExitOnError)
	flags.String("mode", "browse", "one of: publish, browse, resolve")
	flags.String("type", "_http._tcp", "service type")
	flags.String("name", "", "service instance name")
	flags.String("domain", "", "domain (defaults to .local)")
	flags.Uint16("port", 0, "port to publish")
	flags.String("interface", "", "network interface name (defaults to all)")
	flags.Duration("timeout", 0, "stop the operation after this duration")
	flags.Bool("resolve", false, "resolve services while browsing")
	flags.StringToString("txt", nil, "TXT entries to publish, key=value")
	flags.String("log_level", "info", "log level")
	configPath := flags.String("config", "", "YAML config file")
	_ = flags.Parse(os.Args[1:])

	k := koanf.New(".")
	_ = k.Load(confmap.Provider(map[string]any{
		"mode":      "browse",
		"type":      "_http._tcp",
		"log_level": "info",
	}, "."), nil)
	if *configPath != "" {
		if err := k.Load(file.Provider(*configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed reading config file: %w", err)
		}
	}
	if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
		return nil, fmt.Errorf("failed reading flags: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed unmarshaling config: %w", err)
	}
	return &cfg, nil
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		log.WithError(err).Fatal("failed reading configuration")
	}

	logLevel, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.WithError(err).Fatalf("invalid log level: %s", cfg.LogLevel)
	}
	log.SetLevel(logLevel)

	client, err := zeroconf.Open(log.NewEntry(log.StandardLogger()))
	if err != nil {
		log.WithError(err).Fatal("failed connecting to dns-sd daemon")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	switch cfg.Mode {
	case "publish":
		err = runPublish(ctx, client, cfg)
	case "browse":
		err = runBrowse(ctx, client, cfg)
	case "resolve":
		err = runResolve(ctx, client, cfg)
	default:
		log.Fatalf("unknown mode: %s", cfg.Mode)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatalf("failed running %s", cfg.Mode)
	}
}

func runPublish(ctx context.Context, client *zeroconf.Client, cfg *Config) error {
	svc := zeroconf.NewService(cfg.Name, cfg.Type, cfg.Port)
	if cfg.Domain != "" {
		svc.SetDomain(cfg.Domain)
	}
	if cfg.Interface != "" {
		iface, err := zeroconf.InterfaceFromName(cfg.Interface)
		if err != nil {
			return err
		}
		svc.SetInterface(iface)
	}
	for key, value := range cfg.TXT {
		svc.AddTXT(key, value)
	}

	ref, fut, err := client.Publish(svc)
	if err != nil {
		return err
	}
	defer ref.Close()

	if err := fut.Wait(ctx); err != nil {
		return err
	}
	log.Infof("published %s", svc)

	<-ctx.Done()
	return nil
}

func runBrowse(ctx context.Context, client *zeroconf.Client, cfg *Config) error {
	builder := client.Browse(cfg.Type)
	if cfg.Domain != "" {
		builder.Domain(cfg.Domain)
	}
	if cfg.Interface != "" {
		iface, err := zeroconf.InterfaceFromName(cfg.Interface)
		if err != nil {
			return err
		}
		builder.Interface(iface)
	}
	if cfg.Timeout > 0 {
		builder.Timeout(cfg.Timeout)
	} else {
		builder.CloseOnEnd()
	}

	browser, err := builder.Run()
	if err != nil {
		return err
	}
	defer browser.Close()

	if cfg.Resolve {
		for res := range browser.Resolving(ctx) {
			if res.Err != nil {
				log.WithError(res.Err).Warn("failed resolving service")
				continue
			}
			fmt.Println(res.Service)
		}
		return ctx.Err()
	}

	for {
		svc, err := browser.Recv(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		} else if err != nil {
			return err
		}
		fmt.Println(svc)
	}
}

func runResolve(ctx context.Context, client *zeroconf.Client, cfg *Config) error {
	svc := zeroconf.NewService(cfg.Name, cfg.Type, 0)
	domain := cfg.Domain
	if domain == "" {
		domain = "local"
	}
	svc.SetDomain(domain)

	resolver := zeroconf.NewResolver(client).SetUnchecked()
	if cfg.Timeout > 0 {
		resolver.SetTimeout(cfg.Timeout)
	}

	resolved, err := resolver.Resolve(ctx, svc)
	if err != nil {
		return err
	}
	fmt.Println(resolved)
	return nil
}
