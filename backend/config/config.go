package config

import "time"

// Config is the collab server's yaml-backed configuration. Redis, Mysql and
// Kafka are all optional integrations: leave their fields empty to run the
// server purely in-memory.
type Config struct {
	Running struct {
		Port int `mapstructure:"port"`
	} `mapstructure:"running"`
	Redis struct {
		Addrs    []string `mapstructure:"addrs"`
		Password string   `mapstructure:"password"`
	} `mapstructure:"redis"`
	Mysql struct {
		DSN string `mapstructure:"dsn"`
	} `mapstructure:"mysql"`
	Kafka struct {
		Brokers []string `mapstructure:"brokers"`
		Topic   string   `mapstructure:"topic"`
	} `mapstructure:"kafka"`
	Auth struct {
		// "client" trusts the client-asserted identity (the default),
		// "token" requires a signed access token
		Mode   string `mapstructure:"mode"`
		Secret string `mapstructure:"secret"`
	} `mapstructure:"auth"`
	Rooms struct {
		// zero disables the idle-room sweep
		SweepInterval time.Duration `mapstructure:"sweepInterval"`
		MaxIdle       time.Duration `mapstructure:"maxIdle"`
	} `mapstructure:"rooms"`
}
