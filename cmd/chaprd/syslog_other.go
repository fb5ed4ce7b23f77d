//go:build !unix

package main

func setupLogging() {}
