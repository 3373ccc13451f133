package connections

import (
	"context"
	"log"
	"sync"
	"time"
)

const closeTimeout = 3 * time.Second

// closeWithTimeout executes a close function, giving up after closeTimeout
func closeWithTimeout(name string, closeFn func() error) {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- closeFn()
	}()

	select {
	case err := <-done:
		if err != nil {
			log.Printf("Error closing %s: %v", name, err)
		} else {
			log.Printf("Successfully closed %s", name)
		}
	case <-ctx.Done():
		log.Printf("Timeout closing %s after %s", name, closeTimeout)
	}
}

func CloseAll() {
	log.Println("Closing all connections")

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		CloseKafkaWriter()
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		CloseClickHouse()
	}()

	// Wait for all closures with overall timeout
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Println("All connections closed successfully")
	case <-time.After(15 * time.Second):
		log.Println("Timeout waiting for all connections to close")
	}
}
