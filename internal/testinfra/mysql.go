// KontrakPro - Contract Lifecycle Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kontrakpro

//go:build integration

package testinfra

import (
	"context"
	"fmt"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	// DefaultMySQLImage backs MySQL executor integration tests.
	DefaultMySQLImage = "mysql:8.0"
	mysqlPort         = "3306/tcp"

	mysqlDatabase = "kontrakpro"
	mysqlPassword = "kontrakpro-test"
)

// MySQLContainer is a running MySQL server with an empty kontrakpro
// database.
type MySQLContainer struct {
	testcontainers.Container
	// DSN is a go-sql-driver/mysql DSN with parseTime enabled.
	DSN string
}

// NewMySQLContainer starts MySQL and waits for the server to accept
// connections on the mapped port.
func NewMySQLContainer(ctx context.Context, opts ...ContainerOption) (*MySQLContainer, error) {
	cfg := newContainerConfig(DefaultMySQLImage, opts)

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        cfg.image,
			ExposedPorts: []string{mysqlPort},
			Env: map[string]string{
				"MYSQL_ROOT_PASSWORD": mysqlPassword,
				"MYSQL_DATABASE":      mysqlDatabase,
			},
			WaitingFor: wait.ForAll(
				wait.ForListeningPort(mysqlPort),
				wait.ForLog("port: 3306  MySQL Community Server"),
			).WithStartupTimeout(cfg.startTimeout),
		},
		Started: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create mysql container: %w", err)
	}

	addr, err := hostPort(ctx, container, mysqlPort)
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, err
	}

	return &MySQLContainer{
		Container: container,
		DSN:       fmt.Sprintf("root:%s@tcp(%s)/%s?parseTime=true&multiStatements=true", mysqlPassword, addr, mysqlDatabase),
	}, nil
}
