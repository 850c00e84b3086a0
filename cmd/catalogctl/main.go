// catalogctl 商品目录 gRPC 命令行客户端
// 用法：
//
//	catalogctl -addr 127.0.0.1:9090 -id 3
//	catalogctl -addr 127.0.0.1:9090 -category kitchen
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	cataloggrpc "github.com/wyfcoding/webshop/internal/catalog/interfaces/grpc"
	"github.com/wyfcoding/webshop/pkg/contextx"
	"github.com/wyfcoding/webshop/pkg/grpcclient"
	"github.com/wyfcoding/webshop/pkg/logger"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
)

type options struct {
	addr     string
	id       uint64
	category string
	timeout  time.Duration
	retries  int
}

func main() {
	var opts options
	flag.StringVar(&opts.addr, "addr", "127.0.0.1:9090", "webshop gRPC 地址")
	flag.Uint64Var(&opts.id, "id", 0, "查询单个商品")
	flag.StringVar(&opts.category, "category", "", "按分类过滤商品列表")
	flag.DurationVar(&opts.timeout, "timeout", 3*time.Second, "单次调用超时")
	flag.IntVar(&opts.retries, "retries", 2, "服务不可用时的重试次数")
	flag.Parse()

	if err := logger.Init(logger.Config{Level: "warn", Format: "text", Output: "stdout"}); err != nil {
		fmt.Fprintf(os.Stderr, "catalogctl: %v\n", err)
		os.Exit(1)
	}

	if err := run(context.Background(), opts, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "catalogctl: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, out io.Writer) error {
	conn, err := grpcclient.NewClient(grpcclient.ClientConfig{
		Target:         opts.addr,
		RequestTimeout: opts.timeout,
		MaxRetries:     opts.retries,
		RetryDelay:     200 * time.Millisecond,
	})
	if err != nil {
		return err
	}
	defer conn.Close()

	ctx = contextx.WithRequestID(ctx, "catalogctl-"+time.Now().Format("20060102150405"))
	client := cataloggrpc.NewCatalogClient(conn)

	var msg proto.Message
	if opts.id > 0 {
		msg, err = client.GetProduct(ctx, opts.id)
	} else {
		msg, err = client.ListProducts(ctx, opts.category)
	}
	if err != nil {
		return err
	}

	body, err := protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(msg)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(body))
	return err
}
