// Package grpc 商品目录的只读 gRPC 接口
package grpc

import (
	"context"
	"errors"

	"github.com/wyfcoding/webshop/internal/catalog/application"
	"github.com/wyfcoding/webshop/internal/catalog/domain"
	"github.com/wyfcoding/webshop/pkg/logger"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Server 实现 CatalogServiceServer
type Server struct {
	app      *application.CatalogQueryService
	mediaURL string
}

var _ CatalogServiceServer = (*Server)(nil)

// NewServer 创建服务并注册到 s，mediaURL 用于拼接商品图片地址
func NewServer(s grpc.ServiceRegistrar, app *application.CatalogQueryService, mediaURL string) *Server {
	srv := &Server{app: app, mediaURL: mediaURL}
	RegisterCatalogServiceServer(s, srv)
	return srv
}

func (s *Server) GetProduct(ctx context.Context, req *wrapperspb.UInt64Value) (*structpb.Struct, error) {
	if req.GetValue() == 0 {
		return nil, status.Error(codes.InvalidArgument, "product id is required")
	}
	p, err := s.app.GetProduct(ctx, uint(req.GetValue()))
	if err != nil {
		return nil, toStatus(ctx, err)
	}
	return productStruct(p, s.mediaURL)
}

func (s *Server) ListProducts(ctx context.Context, req *wrapperspb.StringValue) (*structpb.ListValue, error) {
	products, err := s.app.ListProducts(ctx, req.GetValue())
	if err != nil {
		return nil, toStatus(ctx, err)
	}
	values := make([]*structpb.Value, 0, len(products))
	for _, p := range products {
		st, err := productStruct(p, s.mediaURL)
		if err != nil {
			return nil, err
		}
		values = append(values, structpb.NewStructValue(st))
	}
	return &structpb.ListValue{Values: values}, nil
}

// image 与 HTTP 接口一致：完整地址，未设置时为 null
func productStruct(p *domain.Product, mediaURL string) (*structpb.Struct, error) {
	var image any
	if url := p.ImageURL(mediaURL); url != "" {
		image = url
	}
	st, err := structpb.NewStruct(map[string]any{
		"id":          p.ID,
		"title":       p.Title,
		"description": p.Description,
		"category":    p.Category,
		"price":       p.Price.StringFixed(2),
		"image":       image,
		"stock":       p.Stock,
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode product %d: %v", p.ID, err)
	}
	return st, nil
}

func toStatus(ctx context.Context, err error) error {
	if errors.Is(err, domain.ErrProductNotFound) {
		return status.Error(codes.NotFound, err.Error())
	}
	logger.Error(ctx, "catalog rpc failed", "error", err)
	return status.Error(codes.Internal, "internal error")
}
