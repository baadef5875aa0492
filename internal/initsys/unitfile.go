package initsys

import (
	"fmt"
	"math"
	"time"
)

// GenerateUnitFile produces the systemd unit for the service.
func GenerateUnitFile(cfg Config) string {
	return fmt.Sprintf(`[Unit]
Description=%s service
After=network-online.target
Wants=network-online.target

[Service]
Type=simple
ExecStart=%s
Restart=on-failure
RestartSec=5s

[Install]
WantedBy=multi-user.target
`, cfg.ServiceName, cfg.BinaryPath)
}

// GenerateInitScript produces the SysV init script for the service. The
// script mirrors Legacy's start/stop semantics for use by the boot sequencer.
func GenerateInitScript(cfg Config) string {
	return fmt.Sprintf(`#!/bin/sh
### BEGIN INIT INFO
# Provides:          %[1]s
# Required-Start:    $network $remote_fs
# Required-Stop:     $network $remote_fs
# Default-Start:     2 3 4 5
# Default-Stop:      0 1 6
# Short-Description: %[1]s service
### END INIT INFO
# chkconfig: 2345 90 10
# description: %[1]s service

NAME="%[1]s"
BIN="%[2]s"
PIDFILE="%[3]s"

is_running() {
	[ -f "$PIDFILE" ] || return 1
	pid=$(cat "$PIDFILE" 2>/dev/null)
	[ -n "$pid" ] && kill -0 "$pid" 2>/dev/null
}

start() {
	if is_running; then
		echo "$NAME is already running (pid $(cat "$PIDFILE"))"
		return 1
	fi
	nohup "$BIN" >/dev/null 2>&1 &
	echo $! > "$PIDFILE"
	echo "$NAME started (pid $!)"
}

stop() {
	if [ ! -f "$PIDFILE" ]; then
		echo "$NAME is not running"
		return 0
	fi
	kill "$(cat "$PIDFILE")" 2>/dev/null
	rm -f "$PIDFILE"
	echo "$NAME stopped"
}

case "$1" in
	start)
		start
		;;
	stop)
		stop
		;;
	restart)
		stop
		sleep %[4]d
		start
		;;
	status)
		if is_running; then
			echo "$NAME is running (pid $(cat "$PIDFILE"))"
		else
			echo "$NAME is stopped"
			exit 3
		fi
		;;
	*)
		echo "Usage: $0 {start|stop|restart|status}"
		exit 2
		;;
esac
`, cfg.ServiceName, cfg.BinaryPath, cfg.PIDFilePath, pauseSeconds(cfg.RestartPause))
}

// pauseSeconds rounds the restart pause up to whole seconds, the only unit
// POSIX sleep accepts.
func pauseSeconds(d time.Duration) int {
	if d <= 0 {
		d = DefaultRestartPause
	}
	return int(math.Ceil(d.Seconds()))
}
