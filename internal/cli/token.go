package cli

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"epp-gateway/internal/auth/revocation"
	jwttoken "epp-gateway/internal/jwt_token"
	"epp-gateway/internal/platform/config"
	"epp-gateway/internal/platform/postgres"
	"epp-gateway/internal/platform/redis"
)

var knownScopes = []string{jwttoken.ScopeRead, jwttoken.ScopeWrite, jwttoken.ScopePoll}

func tokenCmd(g *globals) *cobra.Command {
	c := &cobra.Command{
		Use:   "token",
		Short: "Mint and revoke gateway API tokens",
	}
	c.AddCommand(tokenMintCmd(), tokenRevokeCmd(g))
	return c
}

func tokenMintCmd() *cobra.Command {
	var operator string
	var scopes []string
	var ttl time.Duration

	c := &cobra.Command{
		Use:   "mint",
		Short: "Sign a token with JWT_SIGNING_KEY",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateScopes(scopes); err != nil {
				return err
			}
			cfg, err := config.JWTFromEnv()
			if err != nil {
				return err
			}
			svc := jwttoken.NewJWTService(cfg.SigningKey, cfg.Issuer, cfg.Audience)
			token, err := svc.GenerateAccessToken(operator, scopes, ttl)
			if err != nil {
				return fmt.Errorf("sign token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	c.Flags().StringVarP(&operator, "operator", "o", "", "Operator the token identifies (required)")
	c.Flags().StringSliceVarP(&scopes, "scope", "s", []string{jwttoken.ScopeRead}, "Scopes to grant: "+strings.Join(knownScopes, ", "))
	c.Flags().DurationVar(&ttl, "ttl", time.Hour, "Token lifetime")

	_ = c.MarkFlagRequired("operator")
	return c
}

func validateScopes(scopes []string) error {
	if len(scopes) == 0 {
		return errors.New("at least one scope is required")
	}
	for _, s := range scopes {
		if !slices.Contains(knownScopes, s) {
			return fmt.Errorf("unknown scope %q", s)
		}
	}
	return nil
}

// revoker is the write side of the revocation lists.
type revoker interface {
	RevokeTokens(ctx context.Context, jtis []string, ttl time.Duration) error
}

func tokenRevokeCmd(g *globals) *cobra.Command {
	var redisURL, postgresDSN string
	var ttl time.Duration

	c := &cobra.Command{
		Use:   "revoke JTI...",
		Short: "Add token IDs to the revocation list the gateway checks",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := g.logger(cmd)

			var trl revoker
			switch {
			case redisURL != "":
				rdb, err := redis.New(ctx, config.RedisConfig{
					URL:          redisURL,
					PoolSize:     1,
					DialTimeout:  5 * time.Second,
					ReadTimeout:  3 * time.Second,
					WriteTimeout: 3 * time.Second,
				})
				if err != nil {
					return err
				}
				defer rdb.Close()
				trl = revocation.NewRedisTRL(rdb.Client)
			case postgresDSN != "":
				db, err := postgres.Open(ctx, config.PostgresConfig{DSN: postgresDSN, MaxOpenConns: 1, MaxIdleConns: 1})
				if err != nil {
					return err
				}
				defer db.Close()
				if err := postgres.Migrate(ctx, db, revocation.PostgresSchema); err != nil {
					return err
				}
				trl = revocation.NewPostgresTRL(db)
			default:
				return errors.New("one of --redis-url or --postgres-dsn is required")
			}

			if err := trl.RevokeTokens(ctx, args, ttl); err != nil {
				return fmt.Errorf("revoke: %w", err)
			}
			log.Info("tokens revoked", "count", len(args), "ttl", ttl)
			fmt.Fprintf(cmd.OutOrStdout(), "revoked %d token(s)\n", len(args))
			return nil
		},
	}

	c.Flags().StringVar(&redisURL, "redis-url", "", "Redis holding the revocation list")
	c.Flags().StringVar(&postgresDSN, "postgres-dsn", "", "Postgres holding the revocation list")
	c.Flags().DurationVar(&ttl, "ttl", time.Hour, "How long to keep the revocation; at least the token's remaining lifetime")
	c.MarkFlagsMutuallyExclusive("redis-url", "postgres-dsn")
	return c
}
