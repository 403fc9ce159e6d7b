package narrator

import "fmt"

func analysisPrompt(trendDigest string) string {
	return fmt.Sprintf(`Analyze the following sequence of industrial telemetry data (timestamp, power, efficiency):
%s

Perform a deep-data analysis and provide:
1. TREND ANALYSIS: Identify efficiency leaks or deviations from the design curve.
2. 4-HOUR PROJECTION: Estimated power load and efficiency impact if no action is taken.
3. MEASURES TO BE TAKEN: Provide 3 concrete, high-impact technical adjustments (e.g., valve positioning, speed modulation, purge cycles).

Tone: Highly technical, data-driven, PSU compliant. Strictly avoid mentioning AI model names or vendors.`, trendDigest)
}

func diagnosticPrompt(symptoms string) string {
	return fmt.Sprintf(`The following industrial anomaly was detected: %s.
Provide a Root Cause Analysis (RCA) and immediate corrective action.
Include the 'Why-Why' analysis logic. Strictly industrial tone.`, symptoms)
}

func handoverPrompt(dataSummary string) string {
	return fmt.Sprintf(`Generate a formal 'Shift Handover Report' based on this data: %s. Include:
1. Executive Summary
2. Safety & Compliance Check
3. Efficiency Anomalies
4. Recommended focus for the incoming shift.
Tone: Bureaucratic, Official, Professional. Do not mention AI provider names.`, dataSummary)
}

func explanationPrompt(description, plantContext string) string {
	return fmt.Sprintf(`As an industrial thermodynamic expert at a Govt PSU, explain this optimization:
Context: %s
Action: %s

Requirements:
1. Explain the physics (e.g., Isentropic efficiency, Joule-Thomson effect).
2. Quantify financial impact in INR.
3. Use a formal, authoritative tone. Do not mention any AI provider names.`, plantContext, description)
}
