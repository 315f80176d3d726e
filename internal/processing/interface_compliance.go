package processing

import "torn_tools/internal/torn"

// Compile-time checks that the concrete types satisfy the interfaces
var (
	_ TornClientInterface     = (*torn.Client)(nil)
	_ APICallTrackerInterface = (*APICallTracker)(nil)
	_ WarStatusLoader         = (*WarStatusService)(nil)
)
