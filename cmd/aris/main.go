// Copyright 2025 Alan Matykiewicz
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to use,
// copy, modify, merge, publish, distribute, sublicense, and/or sell copies of the
// Software, and to permit persons to whom the Software is furnished to do so,
// subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND,
// EXPRESS OR IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES
// OF MERCHANTABILITY, FITNESS FOR A PARTICULAR PURPOSE AND
// NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR COPYRIGHT
// HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY,
// WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING
// FROM, OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR
// OTHER DEALINGS IN THE SOFTWARE.

package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alexflint/go-arg"

	"github.com/aris-ai/aris/internal/config"
	"github.com/aris-ai/aris/server"
	"github.com/aris-ai/aris/worker"
)

const (
	ProgramName   = "ARIS"
	Version       = "v0.1.0"
	RepositoryUrl = "github.com/aris-ai/aris"
)

type serveCmd struct {
	Host string `arg:"--host,-H" default:"" help:"listen host address"`
	Port int    `arg:"--port,-p" default:"8080" help:"listen port"`
}

type workerCmd struct {
	Concurrency int `arg:"--concurrency,-c" default:"10" help:"number of concurrent tasks"`
}

type args struct {
	Server *serveCmd  `arg:"subcommand:serve" help:"start the ARIS gateway"`
	Worker *workerCmd `arg:"subcommand:work" help:"start the ARIS worker"`

	Config string `arg:"--config" default:"aris.yaml" help:"path to the config file"`
	Debug  bool   `arg:"--debug" help:"enable debug logging"`
}

func (args) Version() string {
	return fmt.Sprintf("%s %s", ProgramName, Version)
}

func (args) Epilogue() string {
	return fmt.Sprintf("For more information visit %s", RepositoryUrl)
}

func main() {
	var args args

	p, err := arg.NewParser(arg.Config{Program: strings.ToLower(ProgramName)}, &args)
	if err != nil {
		log.Fatalf("there was an error in the definition of the Go struct: %v", err)
	}
	p.MustParse(os.Args[1:])

	if p.Subcommand() == nil {
		p.WriteUsage(os.Stdout)
		os.Exit(0)
	}

	level := slog.LevelInfo
	if args.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	conf, err := config.Load(args.Config)
	if err != nil {
		slog.Error("failed to load config", "path", args.Config, "err", err)
		os.Exit(1)
	}

	switch cmd := p.Subcommand().(type) {
	case *serveCmd:
		err = startServer(conf, cmd)
	case *workerCmd:
		err = startWorker(conf, cmd)
	default:
		p.FailSubcommand("unrecognized command", p.SubcommandNames()...)
	}

	if err != nil {
		slog.Error("exited with error", "err", err)
		os.Exit(1)
	}
}

func startServer(conf config.Config, cmd *serveCmd) error {
	retriever, closeStore, err := buildRetriever(conf)
	if err != nil {
		return err
	}
	defer closeStore()

	serverConf := server.DefaultConfig()
	serverConf.ListenHost = cmd.Host
	serverConf.ListenPort = cmd.Port
	serverConf.RedisAddr = conf.RedisAddr
	serverConf.TextCollection = conf.Collections.Text
	serverConf.ImagesCollection = conf.Collections.Images

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(serverConf, retriever)
	return srv.Serve(ctx)
}

func startWorker(conf config.Config, cmd *workerCmd) error {
	w := worker.New(conf, cmd.Concurrency)
	return w.Start()
}
