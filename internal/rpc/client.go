package rpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"docring/internal/balancer"
	"docring/internal/message"
)

// Client calls a remote LoadBalancer service.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient creates a client over an established connection.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Dial opens an insecure connection to addr. The caller closes it.
func Dial(addr string, opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", addr, err)
	}
	return conn, nil
}

// Forward sends a document request.
func (c *Client) Forward(ctx context.Context, req message.Request) (message.Response, error) {
	in, err := requestToStruct(req)
	if err != nil {
		return message.Response{}, err
	}
	out, err := c.invoke(ctx, "Forward", in)
	if err != nil {
		return message.Response{}, err
	}
	return structToResponse(out)
}

// AddServer adds a server and returns the server ids afterwards.
func (c *Client) AddServer(ctx context.Context, id, cacheCapacity uint32) ([]uint32, error) {
	in, err := structpb.NewStruct(map[string]any{"id": id, "cache_capacity": cacheCapacity})
	if err != nil {
		return nil, err
	}
	out, err := c.invoke(ctx, "AddServer", in)
	if err != nil {
		return nil, err
	}
	return structToServers(out)
}

// RemoveServer removes a server and reports whether it existed.
func (c *Client) RemoveServer(ctx context.Context, id uint32) (bool, error) {
	in, err := structpb.NewStruct(map[string]any{"id": id})
	if err != nil {
		return false, err
	}
	out, err := c.invoke(ctx, "RemoveServer", in)
	if err != nil {
		return false, err
	}
	return out.GetFields()["removed"].GetBoolValue(), nil
}

// Snapshot fetches a view of every server.
func (c *Client) Snapshot(ctx context.Context) ([]balancer.ServerSnapshot, error) {
	out, err := c.invoke(ctx, "Snapshot", &structpb.Struct{})
	if err != nil {
		return nil, err
	}
	return structToSnapshot(out)
}

func (c *Client) invoke(ctx context.Context, method string, in *structpb.Struct) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out); err != nil {
		return nil, err
	}
	return out, nil
}
