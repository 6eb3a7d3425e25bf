package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/dep2p/go-drlrouting/internal/agent/policy"
	"github.com/dep2p/go-drlrouting/internal/agent/source/grpcsource"
	"github.com/dep2p/go-drlrouting/internal/agent/source/onnxsource"
	"github.com/dep2p/go-drlrouting/pkg/interfaces"
)

// serve-policy 参数
var serveFlags struct {
	listen     string
	source     string
	onnxModel  string
	onnxLib    string
	inputName  string
	outputName string
	actionDim  int
}

var serveCmd = &cobra.Command{
	Use:   "serve-policy",
	Short: "Serve a decision source over gRPC",
	RunE:  runServe,
}

func init() {
	f := serveCmd.Flags()
	f.StringVar(&serveFlags.listen, "listen", "127.0.0.1:50051", "监听地址")
	f.StringVar(&serveFlags.source, "source", "roundrobin", "决策源 (roundrobin/onnx)")
	f.StringVar(&serveFlags.onnxModel, "onnx-model", "", "ONNX 模型路径")
	f.StringVar(&serveFlags.onnxLib, "onnx-lib", "", "onnxruntime 共享库路径")
	f.StringVar(&serveFlags.inputName, "onnx-input", "state", "模型输入张量名")
	f.StringVar(&serveFlags.outputName, "onnx-output", "probs", "模型输出张量名")
	f.IntVar(&serveFlags.actionDim, "action-dim", 8, "模型输出的动作维度")
}

// openServeSource 按参数打开决策源
func openServeSource() (interfaces.DecisionSource, error) {
	switch serveFlags.source {
	case "roundrobin":
		return policy.NewRoundRobinSource(), nil
	case onnxsource.PolicyName:
		src, err := onnxsource.Open(onnxsource.Options{
			ModelPath:   serveFlags.onnxModel,
			LibraryPath: serveFlags.onnxLib,
			InputName:   serveFlags.inputName,
			OutputName:  serveFlags.outputName,
			ActionDim:   serveFlags.actionDim,
		})
		if err != nil {
			return nil, err
		}
		return src, nil
	}
	return nil, fmt.Errorf("unknown decision source %q", serveFlags.source)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	src, err := openServeSource()
	if err != nil {
		return err
	}
	defer func() {
		if c, ok := src.(io.Closer); ok {
			_ = c.Close()
		}
	}()

	server := grpcsource.NewServer(src)
	if err := server.Start(ctx, serveFlags.listen); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "serving %s decisions on %s\n", serveFlags.source, server.Address())

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Stop(stopCtx)
}
