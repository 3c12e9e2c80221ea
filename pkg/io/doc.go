// Package io exports analysis results as JSON reports.
//
// # Overview
//
// A report is a self-contained record of one run, meant for CI artifacts
// and for comparing builds over time:
//
//	{
//	  "run_id": "5f0c1f9e-...",
//	  "entry_points": ["main", "uart_isr"],
//	  "isrs": ["uart_isr"],
//	  "scenarios": [
//	    {"label": "callbacks.txt", "entry": "uart_isr", "total": 136, "unbounded": false,
//	     "path": ["uart_isr", "on_rx"]}
//	  ],
//	  "worst": {
//	    "label": "callbacks.txt", "entry": "uart_isr", "total": 136, "unbounded": false,
//	    "path": ["uart_isr", "on_rx"],
//	    "frames": [
//	      {"function": "uart_isr", "size": 8, "cumulative": 8},
//	      {"function": "on_rx", "size": 128, "cumulative": 136}
//	    ]
//	  },
//	  "uncalled": [],
//	  "unresolved": [],
//	  "warnings": [{"tier": "local", "source": "build/main.su", "line": 4, "message": "..."}]
//	}
//
// Unbounded scenarios carry a "cycle" array with the recursion that makes
// them unbounded; their "total" is 0 and carries no meaning.
//
// # Round Trip
//
// [ReadJSON] decodes a report written by [WriteJSON]. The CLI uses it to
// compare a run against a baseline report.
package io
