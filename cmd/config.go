package main

import "time"

type Config struct {
	BadgerFilepath string        `env:"BADGER_FILEPATH,required=true"`
	LogLevel       string        `env:"LOG_LEVEL,required=true"`
	Host           string        `env:"HOST,default=localhost"`
	Port           int           `env:"PORT,default=8080"`
	JWTSecret      string        `env:"JWT_SECRET,required=true"`
	ReplyDelay     time.Duration `env:"REPLY_DELAY,default=3s"`
	ReplyPoolSize  int           `env:"REPLY_POOL_SIZE,default=256"`
	AllowedOrigins string        `env:"ALLOWED_ORIGINS,default=http://localhost:3000"`
	// DebugPort enables the store inspector when non zero.
	DebugPort int `env:"DEBUG_PORT,default=0"`
}
