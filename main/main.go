package main

import (
	"os"

	fx_pool_simulator "fx-pool-simulator"
)

func main() {
	rpc := os.Getenv("ETH_RPC")
	sim, err := fx_pool_simulator.NewSimulator("simulator.db", rpc)
	if err != nil {
		panic(err)
	}
	err = sim.FlushPools()
	if err != nil {
		panic(err)
	}
}
