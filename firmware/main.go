//go:build tinygo

//go:generate tinygo flash -target=arduino

package main

import (
	"machine"
	"time"
)

var (
	adcSensor machine.ADC
	uart      = machine.Serial

	// ADC averaging - running sum and count
	sensorSum   uint32
	sensorCount int

	// Timing
	lastADCRead time.Time
)

func main() {
	PIN_SENSOR.Configure(machine.PinConfig{Mode: machine.PinInput})

	adcSensor = machine.ADC{Pin: PIN_SENSOR}
	adcSensor.Configure(machine.ADCConfig{
		Reference:  ADC_REFERENCE_MV,
		Resolution: ADC_RESOLUTION,
	})

	uart.Configure(machine.UARTConfig{
		BaudRate: UART_BAUD_RATE,
	})

	time.Sleep(WARMUP_MS * time.Millisecond)
	print("MQ sensor ready\n")

	lastADCRead = time.Now()

	for {
		now := time.Now()

		if now.Sub(lastADCRead) >= SAMPLE_INTERVAL_MS*time.Millisecond {
			readSensorADC()
			lastADCRead = now
		}

		if sensorCount >= NUM_SAMPLES {
			outputAveragedValue()
			sensorSum = 0
			sensorCount = 0
		}

		time.Sleep(100 * time.Microsecond)
	}
}

func readSensorADC() {
	// machine.ADC.Get scales every resolution to 16 bits
	value := adcSensor.Get() >> (16 - ADC_RESOLUTION)
	sensorSum += uint32(value)
	sensorCount++
}

func outputAveragedValue() {
	n := sensorCount
	if n == 0 {
		n = 1
	}
	avg := uint16(sensorSum / uint32(n))

	// Output format: "SENSOR,<reading>\n"
	// Example: "SENSOR,412\n"
	print("SENSOR,")
	print(avg)
	print("\n")
}
