//go:build tinygo

package main

import "machine"

const (
	// Sampling configuration
	SAMPLE_INTERVAL_MS = 5   // ADC read interval in milliseconds
	NUM_SAMPLES        = 20  // Number of samples averaged into one record
	WARMUP_MS          = 500 // Delay before the first record while the heater settles

	// ADC configuration
	ADC_REFERENCE_MV = 5000 // Reference voltage in millivolts (5V on the Uno)
	ADC_RESOLUTION   = 10   // ADC resolution in bits (10-bit = 0-1023)

	// MQ sensor analog output
	PIN_SENSOR = machine.ADC0

	// Serial configuration
	// Format "SENSOR,1023\n" = 12 bytes max per line
	// 10 records/sec * 12 bytes/line = 120 bytes/sec, well under 9600 baud (960 bytes/sec)
	UART_BAUD_RATE = 9600
)
