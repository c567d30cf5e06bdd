/*
 * MIT License
 *
 * Copyright (c) 2026 the goudp authors
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

// Command udpreactor runs a single-threaded epoll UDP echo server: every
// datagram it receives is written back to its sender, exercising the
// full bind/register/read/write lifecycle of the udp package.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sys/unix"

	"github.com/nabbar/goudp/alloc"
	"github.com/nabbar/goudp/buffer"
	"github.com/nabbar/goudp/config"
	"github.com/nabbar/goudp/eventloop"
	"github.com/nabbar/goudp/message"
	"github.com/nabbar/goudp/metrics"
	"github.com/nabbar/goudp/pipeline"
	"github.com/nabbar/goudp/udp"
	"github.com/nabbar/goudp/xlog"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

// newRootCommand wires the server's flags through viper rather than
// reading them directly off the cobra.Command, so every flag also
// accepts a GOUDP_-prefixed environment variable or a value from
// --config, following the flag-then-viper-bind shape nabbar-golib/cobra
// wraps around spf13/cobra and spf13/viper.
func newRootCommand() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:          "udpreactor",
		Short:        "Run a single-threaded epoll UDP echo server",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(v)
		},
	}

	flags := cmd.Flags()
	flags.String("host", "0.0.0.0", "bind address")
	flags.Int("port", 9797, "bind port")
	flags.Bool("debug", false, "enable debug logging")
	flags.Int("max-segment-size", 0, "expected per-datagram size, enables the scattering batch read when > 0")
	flags.String("config", "", "optional config file (yaml/json/toml) providing the flags above")

	_ = v.BindPFlags(flags)
	v.SetEnvPrefix("goudp")
	v.AutomaticEnv()

	cobra.OnInitialize(func() {
		if path := v.GetString("config"); path != "" {
			v.SetConfigFile(path)
			_ = v.ReadInConfig()
		}
	})

	return cmd
}

func run(v *viper.Viper) error {
	level := xlog.InfoLevel
	if v.GetBool("debug") {
		level = xlog.DebugLevel
	}
	log := xlog.New(os.Stderr, level)

	cfg := config.Default()
	cfg.MaxDatagramPayloadSize = v.GetInt("max-segment-size")
	cfg.Reconcile()

	met := metrics.New("goudp", "udpreactor", nil)

	loop, err := eventloop.New(log)
	if err != nil {
		return fmt.Errorf("create event loop: %w", err)
	}
	defer loop.Close()

	pool := buffer.NewPool(65536)
	allocHandle := alloc.NewAdaptive()

	var channel *udp.Channel
	echo := pipeline.Funcs{
		OnRead: func(in *message.Inbound) {
			out := message.NewAddressed(in.Payload, in.Sender.(*net.UDPAddr))
			if err := channel.Write(out); err != nil {
				log.Error("echo write rejected", xlog.Fields{"error": err})
			}
		},
		OnException: func(err error) {
			log.Warn("channel exception", xlog.Fields{"error": err})
		},
	}

	channel, err = udp.New(unix.AF_INET, cfg, loop, &echo, log, met, "udpreactor", pool, allocHandle)
	if err != nil {
		return fmt.Errorf("create channel: %w", err)
	}
	defer channel.Close()

	if err := channel.Bind(&net.UDPAddr{IP: net.ParseIP(v.GetString("host")), Port: v.GetInt("port")}); err != nil {
		return fmt.Errorf("bind: %w", err)
	}
	if err := channel.Register(); err != nil {
		return fmt.Errorf("register: %w", err)
	}

	log.Info("udpreactor listening", xlog.Fields{"addr": channel.LocalAddr(), "channel_id": channel.ID()})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	return loop.Run(ctx)
}
