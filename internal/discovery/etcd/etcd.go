package etcd

import (
	"context"
	"fmt"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
)

// Registrar 把报告服务注册到 etcd，供同一集群内的其他服务发现。
type Registrar struct {
	cli *clientv3.Client
}

// NewRegistrar 连接到 etcd 集群。
func NewRegistrar(endpoints []string) (*Registrar, error) {
	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   endpoints,
		DialTimeout: 5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("etcd 连接失败: %w", err)
	}
	return &Registrar{cli: cli}, nil
}

// Register 以租约方式注册服务地址并维持心跳。返回的 stop 通道关闭后停止续约。
func (r *Registrar) Register(ctx context.Context, serviceName, addr string, ttl int64) (chan<- struct{}, error) {
	lease, err := r.cli.Grant(ctx, ttl)
	if err != nil {
		return nil, err
	}

	key := "/" + serviceName + "/" + addr
	if _, err := r.cli.Put(ctx, key, addr, clientv3.WithLease(lease.ID)); err != nil {
		return nil, err
	}

	keepAlive, err := r.cli.KeepAlive(ctx, lease.ID)
	if err != nil {
		return nil, err
	}

	stop := make(chan struct{})
	go func() {
		for {
			select {
			case <-stop:
				r.cli.Delete(context.Background(), key)
				return
			case _, ok := <-keepAlive:
				if !ok {
					// 租约已过期或被撤销。
					return
				}
			}
		}
	}()
	return stop, nil
}

// Close 关闭 etcd 客户端连接。
func (r *Registrar) Close() error {
	return r.cli.Close()
}
