package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"epp-gateway/internal/epp/objects/domain"
	"epp-gateway/internal/platform/config"
	"epp-gateway/internal/registrar/connect"
	"epp-gateway/internal/registrar/models"
	"epp-gateway/internal/registrar/service"
)

// registryFlags override the EPP_ environment for one invocation.
type registryFlags struct {
	host     string
	port     int
	clientID string
	plainTCP bool
	insecure bool
}

func (f *registryFlags) bind(c *cobra.Command) {
	c.Flags().StringVar(&f.host, "host", "", "Registry host (default $EPP_HOST)")
	c.Flags().IntVar(&f.port, "port", 0, "Registry port (default $EPP_PORT)")
	c.Flags().StringVar(&f.clientID, "client-id", "", "Registrar login (default $EPP_CLIENT_ID); the password is always read from $EPP_PASSWORD")
	c.Flags().BoolVar(&f.plainTCP, "plain", false, "Connect without TLS")
	c.Flags().BoolVar(&f.insecure, "insecure", false, "Skip server certificate verification")
}

func (f *registryFlags) config(c *cobra.Command) (config.EPPConfig, error) {
	cfg, err := config.EPPFromEnv()
	if err != nil {
		return cfg, err
	}
	flags := c.Flags()
	if flags.Changed("host") {
		cfg.Host = f.host
	}
	if flags.Changed("port") {
		cfg.Port = f.port
	}
	if flags.Changed("client-id") {
		cfg.ClientID = f.clientID
	}
	if flags.Changed("plain") {
		cfg.PlainTCP = f.plainTCP
	}
	if flags.Changed("insecure") {
		cfg.InsecureSkipVerify = f.insecure
	}
	cfg.PoolSize = 1
	if cfg.ClientID == "" || cfg.Password == "" {
		return cfg, fmt.Errorf("registry credentials missing: set EPP_CLIENT_ID and EPP_PASSWORD")
	}
	return cfg, nil
}

// withExecutor runs fn with an executor over a single-session client.
func (f *registryFlags) withExecutor(c *cobra.Command, g *globals, fn func(ctx context.Context, exec *service.Executor) error) error {
	cfg, err := f.config(c)
	if err != nil {
		return err
	}
	ctx := c.Context()
	log := g.logger(c)
	cl, err := connect.Client(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cl.Close()
	return fn(ctx, service.NewExecutor(cl, service.WithLogger(log)))
}

func helloCmd(g *globals) *cobra.Command {
	var rf registryFlags
	c := &cobra.Command{
		Use:   "hello",
		Short: "Log in and print the registry greeting and negotiated extensions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := rf.config(cmd)
			if err != nil {
				return err
			}
			sess, err := connect.Session(cmd.Context(), cfg, g.logger(cmd))
			if err != nil {
				return err
			}
			defer sess.Close(context.WithoutCancel(cmd.Context()))

			gr := sess.Greeting()
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"server":     gr.ServerID,
				"date":       gr.ServerDate,
				"versions":   gr.Versions,
				"objects":    gr.ObjURIs,
				"extensions": gr.ExtURIs,
				"negotiated": sess.ExtURIs(),
			})
		},
	}
	rf.bind(c)
	return c
}

func checkCmd(g *globals) *cobra.Command {
	var rf registryFlags
	var fees []string
	var currency string

	c := &cobra.Command{
		Use:       "check {domain|contact|host} NAME...",
		Short:     "Check availability against the registry",
		Args:      cobra.MinimumNArgs(2),
		ValidArgs: []string{service.ObjectDomain, service.ObjectContact, service.ObjectHost},
		RunE: func(cmd *cobra.Command, args []string) error {
			objType, names := args[0], args[1:]
			if len(fees) > 0 && objType != service.ObjectDomain {
				return fmt.Errorf("--fee applies to domains only")
			}
			return rf.withExecutor(cmd, g, func(ctx context.Context, exec *service.Executor) error {
				var results []models.Availability
				var err error
				switch objType {
				case service.ObjectDomain:
					in := models.DomainCheck{Names: names}
					if len(fees) > 0 {
						in.Fee = &models.FeeQuery{Commands: fees, Currency: currency}
					}
					results, err = service.NewDomainService(exec, nil, 0).Check(ctx, in)
				case service.ObjectContact:
					results, err = service.NewContactService(exec, nil, 0).Check(ctx, names)
				case service.ObjectHost:
					results, err = service.NewHostService(exec, nil, 0).Check(ctx, names)
				default:
					return fmt.Errorf("unknown object type %q", objType)
				}
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), results)
			})
		},
	}
	rf.bind(c)
	c.Flags().StringSliceVar(&fees, "fee", nil, "Ask for pricing of these commands (create, renew, transfer, restore)")
	c.Flags().StringVar(&currency, "currency", "", "Currency for --fee")
	return c
}

func infoCmd(g *globals) *cobra.Command {
	var rf registryFlags
	var authInfo, hosts string

	c := &cobra.Command{
		Use:   "info {domain|contact|host} NAME",
		Short: "Print an object as the registry holds it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			objType, name := args[0], args[1]
			return rf.withExecutor(cmd, g, func(ctx context.Context, exec *service.Executor) error {
				var out any
				var err error
				switch objType {
				case service.ObjectDomain:
					out, err = service.NewDomainService(exec, nil, 0).Info(ctx, models.DomainInfo{Name: name, Hosts: hosts, AuthInfo: authInfo})
				case service.ObjectContact:
					out, err = service.NewContactService(exec, nil, 0).Info(ctx, name, authInfo)
				case service.ObjectHost:
					out, err = service.NewHostService(exec, nil, 0).Info(ctx, name)
				default:
					return fmt.Errorf("unknown object type %q", objType)
				}
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), out)
			})
		},
	}
	rf.bind(c)
	c.Flags().StringVar(&authInfo, "auth-info", "", "Authorization password for objects sponsored elsewhere")
	c.Flags().StringVar(&hosts, "hosts", domain.HostsAll, "Domain hosts to include: "+strings.Join([]string{domain.HostsAll, domain.HostsDel, domain.HostsSub, domain.HostsNone}, ", "))
	return c
}

func pollCmd(g *globals) *cobra.Command {
	var rf registryFlags
	var ack string

	c := &cobra.Command{
		Use:   "poll",
		Short: "Show the oldest queued message, or acknowledge one with --ack",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return rf.withExecutor(cmd, g, func(ctx context.Context, exec *service.Executor) error {
				svc := service.NewPollService(exec)
				var msg *models.PollMessage
				var err error
				if ack != "" {
					msg, err = svc.Ack(ctx, ack)
				} else {
					msg, err = svc.Request(ctx)
				}
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), msg)
			})
		},
	}
	rf.bind(c)
	c.Flags().StringVar(&ack, "ack", "", "Message ID to acknowledge")
	return c
}
